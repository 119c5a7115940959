package chat

import (
	"fmt"
	"strings"
	"time"
)

// Shop identity constants baked into every system preamble.
const (
	ShopName    = "Premium Auto Care"
	ShopPhone   = "(555) 123-4567"
	ShopAddress = "123 Auto Service Lane, Cartown, CA 90210"
)

// openHours is the posted hours table, 24h clock. Absent days are closed.
var openHours = map[time.Weekday][2]int{
	time.Monday:    {8, 18},
	time.Tuesday:   {8, 18},
	time.Wednesday: {8, 18},
	time.Thursday:  {8, 18},
	time.Friday:    {8, 18},
	time.Saturday:  {9, 16},
}

// menuItem is one line of the fixed service-and-price menu.
type menuItem struct {
	Name    string
	Price   float64
	Minutes int
}

var serviceMenu = []menuItem{
	{"Oil Change", 89.99, 45},
	{"Brake Service", 149.99, 60},
	{"Tire Rotation", 49.99, 30},
	{"Engine Diagnostic", 129.99, 60},
	{"AC Service", 119.99, 50},
	{"Battery Replacement", 159.99, 30},
}

// IsOpenAt reports whether the shop is open at the given instant.
func IsOpenAt(t time.Time) bool {
	hours, ok := openHours[t.Weekday()]
	if !ok {
		return false
	}
	return t.Hour() >= hours[0] && t.Hour() < hours[1]
}

// HoursText renders the posted hours for prompts and fallback replies.
func HoursText() string {
	return "Monday-Friday 8:00 AM - 6:00 PM, Saturday 9:00 AM - 4:00 PM, closed Sunday"
}

// MenuText renders the fixed service menu as labeled lines.
func MenuText() string {
	var b strings.Builder
	for _, item := range serviceMenu {
		fmt.Fprintf(&b, "- %s: $%.2f (%d min)\n", item.Name, item.Price, item.Minutes)
	}
	return b.String()
}
