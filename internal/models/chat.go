package models

import "time"

// ChatSender tags who authored a chat message.
type ChatSender string

const (
	SenderUser ChatSender = "user"
	SenderAI   ChatSender = "ai"
)

// ChatMessage is a single message in a chat session.
type ChatMessage struct {
	Sender    ChatSender `json:"sender"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

// CustomerSnapshot is the customer portion of a session context bag.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VehicleSnapshot is the vehicle portion of a session context bag.
type VehicleSnapshot struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	VIN   string `json:"vin"`
}

// AppointmentSnapshot is the appointment portion of a session context bag.
type AppointmentSnapshot struct {
	Status   string `json:"status"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Concerns string `json:"concerns"`
}

// SessionContext accumulates structured hints across chat turns. Merge never
// drops information: a field is replaced only when the incoming value is set.
type SessionContext struct {
	Customer    *CustomerSnapshot    `json:"customer,omitempty"`
	Vehicle     *VehicleSnapshot     `json:"vehicle,omitempty"`
	Appointment *AppointmentSnapshot `json:"appointment,omitempty"`
}

// Merge overlays set fields of other onto the context.
func (c *SessionContext) Merge(other SessionContext) {
	if other.Customer != nil {
		c.Customer = other.Customer
	}
	if other.Vehicle != nil {
		c.Vehicle = other.Vehicle
	}
	if other.Appointment != nil {
		c.Appointment = other.Appointment
	}
}

// ChatSession is an ephemeral conversation keyed by a generated id. Sessions
// live in the session store, not the document database.
type ChatSession struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Messages  []ChatMessage  `json:"messages"`
	Context   SessionContext `json:"context"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
