package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidVIN is returned when a VIN fails validation.
var ErrInvalidVIN = errors.New("VIN must be 17 alphanumeric characters")

// luxuryMakes get a pricing surcharge on diagnostic cost estimates.
var luxuryMakes = []string{"BMW", "Mercedes-Benz", "Audi", "Porsche"}

// Vehicle represents a customer vehicle.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID           string             `bson:"owner_id" json:"owner_id"`
	VIN               string             `bson:"vin" json:"vin"`
	Make              string             `bson:"make" json:"make"`
	Model             string             `bson:"model" json:"model"`
	Year              int                `bson:"year" json:"year"`
	Mileage           float64            `bson:"mileage" json:"mileage"` // in miles
	LicensePlate      string             `bson:"license_plate" json:"license_plate"`
	Color             string             `bson:"color" json:"color"`
	ServiceHistory    []ServiceRecord    `bson:"service_history" json:"service_history"`
	DiagnosticHistory []DiagnosticRecord `bson:"diagnostic_history" json:"diagnostic_history"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// ServiceRecord is an append-only entry of completed work on a vehicle.
type ServiceRecord struct {
	AppointmentID string    `bson:"appointment_id" json:"appointment_id"`
	Description   string    `bson:"description" json:"description"`
	Cost          float64   `bson:"cost" json:"cost"` // in USD
	Mileage       float64   `bson:"mileage" json:"mileage"`
	Technician    string    `bson:"technician" json:"technician"`
	PerformedAt   time.Time `bson:"performed_at" json:"performed_at"`
}

// DiagnosticRecord is an append-only entry of a trouble-code scan.
type DiagnosticRecord struct {
	Codes      []DiagnosticCode `bson:"codes" json:"codes"`
	Source     string           `bson:"source" json:"source"` // "simulated" or "manual"
	Technician string           `bson:"technician" json:"technician"`
	ScannedAt  time.Time        `bson:"scanned_at" json:"scanned_at"`
}

// DiagnosticCode is a single trouble code with its assessed severity.
type DiagnosticCode struct {
	Code     string `bson:"code" json:"code"`
	Severity string `bson:"severity" json:"severity"` // "low", "medium", "high"
}

// NormalizeVIN uppercases and trims a VIN for storage.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidateVIN checks a VIN is 17 alphanumeric characters.
// I/O/Q are excluded from real VINs but legacy records keep them, so only
// length and character class are enforced here.
func ValidateVIN(vin string) error {
	vin = NormalizeVIN(vin)
	if len(vin) != 17 {
		return ErrInvalidVIN
	}
	for _, r := range vin {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ErrInvalidVIN
		}
	}
	return nil
}

// Age returns the vehicle age in whole years relative to now.
func (v *Vehicle) Age(now time.Time) int {
	age := now.Year() - v.Year
	if age < 0 {
		return 0
	}
	return age
}

// IsLuxury reports whether the vehicle's make is in the luxury surcharge list.
func (v *Vehicle) IsLuxury() bool {
	for _, m := range luxuryMakes {
		if strings.EqualFold(v.Make, m) {
			return true
		}
	}
	return false
}

// LuxuryMakes returns the makes subject to the luxury surcharge.
func LuxuryMakes() []string {
	out := make([]string, len(luxuryMakes))
	copy(out, luxuryMakes)
	return out
}
