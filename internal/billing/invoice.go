// Package billing derives invoices from appointments and tracks their
// billing lifecycle. Invoices are documents in the store, not process-local
// state, so they survive restarts and are visible across instances.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invoice status transition not allowed")
	ErrNoServices        = errors.New("appointment has no services to bill")
)

// TaxRate applied to invoice subtotals.
const TaxRate = 0.0825

// LaborRatePerHour is the shop's hourly labor charge.
const LaborRatePerHour = 95.0

// DueInDays is the payment window on a sent invoice.
const DueInDays = 30

// allowedTransitions is the invoice lifecycle: draft -> sent -> paid,
// overdue, or cancelled.
var allowedTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceDraft:     {models.InvoiceSent, models.InvoiceCancelled},
	models.InvoiceSent:      {models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled},
	models.InvoiceOverdue:   {models.InvoicePaid, models.InvoiceCancelled},
	models.InvoicePaid:      {},
	models.InvoiceCancelled: {},
}

// CanTransition reports whether an invoice may move from current to next.
func CanTransition(current, next models.InvoiceStatus) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Service builds and persists invoices.
type Service struct {
	invoices db.InvoiceCollection
	services db.ServiceCollection
	vehicles db.VehicleCollection
}

// NewService wires the billing service.
func NewService(invoices db.InvoiceCollection, services db.ServiceCollection, vehicles db.VehicleCollection) *Service {
	return &Service{invoices: invoices, services: services, vehicles: vehicles}
}

// CreateFromAppointment builds a draft invoice from an appointment: one
// service line per selected service, a part line per consumed part, and a
// labor line from the estimated duration.
func (s *Service) CreateFromAppointment(ctx context.Context, appointment *models.Appointment) (*models.Invoice, error) {
	ids := make([]string, 0, len(appointment.ServiceIDs))
	for _, id := range appointment.ServiceIDs {
		ids = append(ids, id.Hex())
	}
	if len(ids) == 0 {
		return nil, ErrNoServices
	}
	services, err := s.services.FindServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service lookup: %w", err)
	}
	vehicle, err := s.vehicles.FindVehicleByID(ctx, appointment.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle lookup: %w", err)
	}

	invoice := &models.Invoice{
		Number:        newInvoiceNumber(),
		AppointmentID: appointment.ID.Hex(),
		CustomerID:    appointment.CustomerID,
		TaxRate:       TaxRate,
		Status:        models.InvoiceDraft,
	}

	totalMinutes := 0
	for _, svc := range services {
		base := svc.BasePrice
		// Price modifiers land on the service line so part lines stay at
		// their catalog estimates.
		adjusted := svc.TotalCost(vehicle)
		for _, p := range svc.Parts {
			adjusted -= p.EstimatedCost
			invoice.LineItems = append(invoice.LineItems, models.LineItem{
				Type:        models.LinePart,
				Description: p.Name,
				Quantity:    1,
				UnitPrice:   p.EstimatedCost,
			})
		}
		if adjusted < base {
			adjusted = base
		}
		invoice.LineItems = append(invoice.LineItems, models.LineItem{
			Type:        models.LineService,
			Description: svc.Name,
			Quantity:    1,
			UnitPrice:   models.Round2(adjusted),
		})
		totalMinutes += svc.Duration
	}

	if totalMinutes > 0 {
		hours := float64(totalMinutes) / 60.0
		invoice.LineItems = append(invoice.LineItems, models.LineItem{
			Type:        models.LineLabor,
			Description: fmt.Sprintf("Labor (%d min)", totalMinutes),
			Quantity:    models.Round2(hours),
			UnitPrice:   LaborRatePerHour,
		})
	}

	invoice.Recalculate()
	if err := s.invoices.InsertInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	log.WithFields(log.Fields{
		"invoice":        invoice.Number,
		"appointment_id": invoice.AppointmentID,
		"total":          invoice.Total,
	}).Info("Invoice created")
	return invoice, nil
}

// UpdateStatus moves an invoice through its lifecycle, stamping sent/paid
// times and the due date.
func (s *Service) UpdateStatus(ctx context.Context, invoice *models.Invoice, status models.InvoiceStatus) error {
	if !CanTransition(invoice.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, invoice.Status, status)
	}
	now := time.Now()
	switch status {
	case models.InvoiceSent:
		invoice.SentAt = &now
		due := now.AddDate(0, 0, DueInDays)
		invoice.DueDate = &due
	case models.InvoicePaid:
		invoice.PaidAt = &now
	}
	invoice.Status = status
	return s.invoices.UpdateInvoice(ctx, invoice.ID.Hex(), *invoice)
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.NewString()[:8])
}
