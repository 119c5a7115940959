// Package scheduling owns the appointment lifecycle: the status state
// machine, the append-only timeline, and the derived cost and duration
// fields.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
	"github.com/mkaydev/auto-shop/internal/notify"
)

var (
	ErrSchedulingConflict = errors.New("no bays available on the requested date")
	ErrVehicleNotOwned    = errors.New("vehicle does not belong to this customer")
	ErrServiceInactive    = errors.New("service is not currently offered")
	ErrServiceUnknown     = errors.New("service not found")
	ErrRescheduleFinal    = errors.New("completed or cancelled appointments cannot be rescheduled")
	ErrCancelCompleted    = errors.New("completed appointments cannot be cancelled")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrInvalidTime        = errors.New("time must be in HH:MM format")
)

// Engine enforces the appointment state machine against the document store
// and emits lifecycle events to the notification channel.
type Engine struct {
	appointments db.AppointmentCollection
	vehicles     db.VehicleCollection
	services     db.ServiceCollection
	notifier     notify.Notifier
}

// NewEngine wires the lifecycle engine.
func NewEngine(appointments db.AppointmentCollection, vehicles db.VehicleCollection, services db.ServiceCollection, notifier notify.Notifier) *Engine {
	return &Engine{
		appointments: appointments,
		vehicles:     vehicles,
		services:     services,
		notifier:     notifier,
	}
}

// CreateRequest carries the fields needed to book an appointment.
type CreateRequest struct {
	CustomerID string
	VehicleID  string
	ServiceIDs []string
	Date       time.Time
	TimeOfDay  string
	Concerns   string
	Priority   string
}

// Create books a new appointment in scheduled status with its first timeline
// entry. Estimated duration and cost are derived from the selected services
// against the vehicle. Actor ownership is checked when the caller is a
// customer.
//
// The same-day capacity check is a read-then-insert and is not atomic: two
// concurrent bookings can both pass it. The cap models bay availability
// coarsely, not a hard reservation.
func (e *Engine) Create(ctx context.Context, req CreateRequest, actor *models.User) (*models.Appointment, error) {
	if err := validateTimeOfDay(req.TimeOfDay); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	vehicle, err := e.vehicles.FindVehicleByID(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle lookup: %w", err)
	}
	if actor != nil && actor.Role == models.RoleCustomer && vehicle.OwnerID != actor.ID.Hex() {
		return nil, ErrVehicleNotOwned
	}

	services, err := e.services.FindServicesByIDs(ctx, req.ServiceIDs)
	if err != nil {
		return nil, fmt.Errorf("service lookup: %w", err)
	}
	if len(services) != len(req.ServiceIDs) {
		return nil, ErrServiceUnknown
	}

	duration := 0
	cost := 0.0
	for _, svc := range services {
		if !svc.IsActive {
			return nil, ErrServiceInactive
		}
		duration += svc.Duration
		cost += svc.TotalCost(vehicle)
	}

	count, err := e.appointments.CountActiveOnDate(ctx, req.Date)
	if err != nil {
		return nil, fmt.Errorf("capacity check: %w", err)
	}
	if count >= models.SameDayCapacity {
		return nil, ErrSchedulingConflict
	}

	appointment := &models.Appointment{
		CustomerID:        req.CustomerID,
		VehicleID:         req.VehicleID,
		Date:              req.Date,
		TimeOfDay:         req.TimeOfDay,
		EstimatedDuration: duration,
		EstimatedCost:     models.Round2(cost),
		PaymentStatus:     models.PaymentPending,
		Concerns:          req.Concerns,
		Priority:          req.Priority,
		Status:            models.StatusScheduled,
		Timeline: []models.TimelineEntry{{
			Timestamp:   time.Now(),
			Status:      models.StatusScheduled,
			Description: "Appointment scheduled",
		}},
	}
	for _, svc := range services {
		appointment.ServiceIDs = append(appointment.ServiceIDs, svc.ID)
	}

	if err := e.appointments.InsertAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	log.WithFields(log.Fields{
		"appointment_id": appointment.ID.Hex(),
		"customer_id":    appointment.CustomerID,
		"date":           appointment.Date.Format("2006-01-02"),
		"time":           appointment.TimeOfDay,
	}).Info("Appointment created")

	e.notifier.PublishStaff(notify.NewEvent("appointment.created", map[string]interface{}{
		"appointment_id": appointment.ID.Hex(),
		"customer_id":    appointment.CustomerID,
		"date":           appointment.Date.Format("2006-01-02"),
		"time":           appointment.TimeOfDay,
		"priority":       appointment.Priority,
	}))
	return appointment, nil
}

// AddTimelineEntry appends a status entry and sets the appointment status.
// This is the single choke point every status change goes through; it never
// rewrites or reorders existing entries.
func (e *Engine) AddTimelineEntry(ctx context.Context, appointment *models.Appointment, status models.AppointmentStatus, description string) error {
	appointment.Timeline = append(appointment.Timeline, models.TimelineEntry{
		Timestamp:   time.Now(),
		Status:      status,
		Description: description,
	})
	appointment.Status = status
	appointment.UpdatedAt = time.Now()
	return e.appointments.UpdateAppointment(ctx, appointment.ID.Hex(), *appointment)
}

// UpdateStatus moves an appointment to a new status through the transition
// table, appends the timeline entry, and notifies the owning customer.
func (e *Engine) UpdateStatus(ctx context.Context, appointment *models.Appointment, status models.AppointmentStatus, description string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	if !CanTransition(appointment.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, status)
	}
	if description == "" {
		description = fmt.Sprintf("Status changed to %s", status)
	}
	if err := e.AddTimelineEntry(ctx, appointment, status, description); err != nil {
		return err
	}

	if status == models.StatusCompleted {
		e.recordCompletedWork(ctx, appointment)
	}

	e.notifier.PublishUser(appointment.CustomerID, notify.NewEvent("appointment.status", map[string]interface{}{
		"appointment_id": appointment.ID.Hex(),
		"status":         string(status),
		"description":    description,
	}))
	return nil
}

// Reschedule moves an appointment to a new date and time. Whatever the prior
// status, a reschedule lands the appointment back in scheduled.
func (e *Engine) Reschedule(ctx context.Context, appointment *models.Appointment, newDate time.Time, newTime string) error {
	if appointment.Status == models.StatusCompleted || appointment.Status == models.StatusCancelled {
		return ErrRescheduleFinal
	}
	if err := validateTimeOfDay(newTime); err != nil {
		return err
	}

	appointment.Date = newDate
	appointment.TimeOfDay = newTime
	if err := e.AddTimelineEntry(ctx, appointment, models.StatusScheduled, "Appointment rescheduled"); err != nil {
		return err
	}

	e.notifier.PublishUser(appointment.CustomerID, notify.NewEvent("appointment.rescheduled", map[string]interface{}{
		"appointment_id": appointment.ID.Hex(),
		"date":           newDate.Format("2006-01-02"),
		"time":           newTime,
	}))
	return nil
}

// Cancel transitions an appointment to cancelled. Cancellation is a status
// change, never a delete.
func (e *Engine) Cancel(ctx context.Context, appointment *models.Appointment) error {
	if appointment.Status == models.StatusCompleted {
		return ErrCancelCompleted
	}
	if err := e.AddTimelineEntry(ctx, appointment, models.StatusCancelled, "Appointment cancelled"); err != nil {
		return err
	}

	e.notifier.PublishUser(appointment.CustomerID, notify.NewEvent("appointment.cancelled", map[string]interface{}{
		"appointment_id": appointment.ID.Hex(),
	}))
	return nil
}

// recordCompletedWork appends the finished job to the vehicle's service
// history. A history failure does not fail the status change.
func (e *Engine) recordCompletedWork(ctx context.Context, appointment *models.Appointment) {
	cost := appointment.ActualCost
	if cost == 0 {
		cost = appointment.EstimatedCost
	}
	rec := models.ServiceRecord{
		AppointmentID: appointment.ID.Hex(),
		Description:   appointment.Concerns,
		Cost:          cost,
		Technician:    appointment.TechnicianID,
		PerformedAt:   time.Now(),
	}
	if err := e.vehicles.AppendServiceRecord(ctx, appointment.VehicleID, rec); err != nil {
		log.WithFields(log.Fields{
			"appointment_id": appointment.ID.Hex(),
			"vehicle_id":     appointment.VehicleID,
		}).WithError(err).Warn("Failed to record service history")
	}
}

func validateTimeOfDay(t string) error {
	if _, err := time.Parse("15:04", t); err != nil {
		return ErrInvalidTime
	}
	return nil
}
