package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkaydev/auto-shop/internal/billing"
	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
)

// InvoiceHandler exposes invoice creation and lifecycle updates.
type InvoiceHandler struct {
	billing      *billing.Service
	invoices     db.InvoiceCollection
	appointments db.AppointmentCollection
	users        db.UserCollection
}

// NewInvoiceHandler creates the invoice handler.
func NewInvoiceHandler(billingService *billing.Service, invoices db.InvoiceCollection, appointments db.AppointmentCollection, users db.UserCollection) *InvoiceHandler {
	return &InvoiceHandler{
		billing:      billingService,
		invoices:     invoices,
		appointments: appointments,
		users:        users,
	}
}

type createInvoiceRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Create builds a draft invoice from an appointment. Staff only.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil || !actor.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff only")
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	appointment, err := h.appointments.FindAppointmentByID(r.Context(), req.AppointmentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	invoice, err := h.billing.CreateFromAppointment(r.Context(), appointment)
	if err != nil {
		if errors.Is(err, billing.ErrNoServices) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create invoice")
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

// Get returns one invoice, customer-scoped.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	invoice, err := h.invoices.FindInvoiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if !actor.IsStaff() && invoice.CustomerID != actor.ID.Hex() {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

type invoiceStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an invoice through its lifecycle. Staff only.
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil || !actor.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff only")
		return
	}
	invoice, err := h.invoices.FindInvoiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	}

	var req invoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.billing.UpdateStatus(r.Context(), invoice, models.InvoiceStatus(req.Status)); err != nil {
		if errors.Is(err, billing.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update invoice")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}
