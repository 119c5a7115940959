package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no-show"
)

// PaymentStatus tracks payment independently of the appointment lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Bays available for assignment. Same-day capacity equals the bay count.
var Bays = []string{"bay-1", "bay-2", "bay-3", "bay-4", "bay-5"}

// SameDayCapacity is the coarse booking cap per calendar date.
const SameDayCapacity = 5

// progressByStatus maps each status to a completion percentage.
var progressByStatus = map[AppointmentStatus]int{
	StatusScheduled:  10,
	StatusConfirmed:  20,
	StatusInProgress: 60,
	StatusCompleted:  100,
	StatusCancelled:  0,
	StatusNoShow:     0,
}

// Appointment represents a scheduled shop visit.
type Appointment struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CustomerID        string               `bson:"customer_id" json:"customer_id"`
	VehicleID         string               `bson:"vehicle_id" json:"vehicle_id"`
	ServiceIDs        []primitive.ObjectID `bson:"service_ids" json:"service_ids"`
	Date              time.Time            `bson:"date" json:"date"`
	TimeOfDay         string               `bson:"time_of_day" json:"time_of_day"` // "HH:MM"
	EstimatedDuration int                  `bson:"estimated_duration" json:"estimated_duration"` // in minutes
	EstimatedCost     float64              `bson:"estimated_cost" json:"estimated_cost"`         // in USD
	ActualCost        float64              `bson:"actual_cost" json:"actual_cost"`
	PaymentStatus     PaymentStatus        `bson:"payment_status" json:"payment_status"`
	Bay               string               `bson:"bay" json:"bay"`
	TechnicianID      string               `bson:"technician_id" json:"technician_id"`
	Concerns          string               `bson:"concerns" json:"concerns"`
	Priority          string               `bson:"priority" json:"priority"` // "low", "medium", "high", "urgent"
	Status            AppointmentStatus    `bson:"status" json:"status"`
	Timeline          []TimelineEntry      `bson:"timeline" json:"timeline"`
	CreatedAt         time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `bson:"updated_at" json:"updated_at"`
}

// TimelineEntry is an immutable status-change record. The timeline is
// append-only; the last entry's status always equals the appointment status.
type TimelineEntry struct {
	Timestamp        time.Time         `bson:"timestamp" json:"timestamp"`
	Status           AppointmentStatus `bson:"status" json:"status"`
	Description      string            `bson:"description" json:"description"`
	NotificationSent bool              `bson:"notification_sent" json:"notification_sent"`
}

// ProgressPercentage maps the current status to a completion percentage.
// Unknown statuses report 0.
func (a *Appointment) ProgressPercentage() int {
	return progressByStatus[a.Status]
}

// ScheduledFor combines the calendar date and HH:MM time of day into a
// single instant in the date's location.
func (a *Appointment) ScheduledFor() (time.Time, error) {
	parsed, err := time.Parse("15:04", a.TimeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", a.TimeOfDay, err)
	}
	d := a.Date
	return time.Date(d.Year(), d.Month(), d.Day(), parsed.Hour(), parsed.Minute(), 0, 0, d.Location()), nil
}

// IsOverdue reports whether the scheduled instant has passed while the
// appointment is still awaiting confirmation. Only "scheduled" appointments
// go overdue; a confirmed appointment past its slot does not.
func (a *Appointment) IsOverdue(now time.Time) bool {
	if a.Status != StatusScheduled {
		return false
	}
	at, err := a.ScheduledFor()
	if err != nil {
		return false
	}
	return now.After(at)
}

// IsActiveStatus reports whether the status counts against same-day capacity.
func IsActiveStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

// IsValidStatus checks a status value against the known set.
func IsValidStatus(s AppointmentStatus) bool {
	_, ok := progressByStatus[s]
	return ok
}
