package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
	"github.com/mkaydev/auto-shop/internal/scheduling"
)

// AppointmentHandler exposes the lifecycle engine over HTTP.
type AppointmentHandler struct {
	engine       *scheduling.Engine
	appointments db.AppointmentCollection
	users        db.UserCollection
}

// NewAppointmentHandler creates the appointment handler.
func NewAppointmentHandler(engine *scheduling.Engine, appointments db.AppointmentCollection, users db.UserCollection) *AppointmentHandler {
	return &AppointmentHandler{engine: engine, appointments: appointments, users: users}
}

type createAppointmentRequest struct {
	CustomerID string   `json:"customer_id"`
	VehicleID  string   `json:"vehicle_id"`
	ServiceIDs []string `json:"service_ids"`
	Date       string   `json:"date"` // "2006-01-02"
	Time       string   `json:"time"` // "HH:MM"
	Concerns   string   `json:"concerns"`
	Priority   string   `json:"priority"`
}

// appointmentView adds derived fields to the stored document.
type appointmentView struct {
	*models.Appointment
	ProgressPercentage int  `json:"progress_percentage"`
	Overdue            bool `json:"overdue"`
}

func viewOf(a *models.Appointment) appointmentView {
	return appointmentView{
		Appointment:        a,
		ProgressPercentage: a.ProgressPercentage(),
		Overdue:            a.IsOverdue(time.Now()),
	}
}

// Create books an appointment.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
		return
	}

	customerID := req.CustomerID
	if actor.Role == models.RoleCustomer || customerID == "" {
		customerID = actor.ID.Hex()
	}

	appointment, err := h.engine.Create(r.Context(), scheduling.CreateRequest{
		CustomerID: customerID,
		VehicleID:  req.VehicleID,
		ServiceIDs: req.ServiceIDs,
		Date:       date,
		TimeOfDay:  req.Time,
		Concerns:   req.Concerns,
		Priority:   req.Priority,
	}, actor)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(appointment))
}

// List returns appointments: all for staff (optionally filtered by ?date=),
// own for customers.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := bson.M{}
	if !actor.IsStaff() {
		filter["customer_id"] = actor.ID.Hex()
	}
	if d := r.URL.Query().Get("date"); d != "" {
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
			return
		}
		filter["date"] = bson.M{"$gte": date, "$lt": date.AddDate(0, 0, 1)}
	}

	appointments, err := h.appointments.FindAppointments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list appointments")
		return
	}
	views := make([]appointmentView, 0, len(appointments))
	for i := range appointments {
		views = append(views, viewOf(&appointments[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// Get returns one appointment, with ownership enforced for customers.
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appointment, _, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(appointment))
}

type statusRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// UpdateStatus moves an appointment through the state machine. Staff only.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	appointment, actor, ok := h.load(w, r)
	if !ok {
		return
	}
	if !actor.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff only")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	err := h.engine.UpdateStatus(r.Context(), appointment, models.AppointmentStatus(req.Status), req.Description)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(appointment))
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Reschedule moves an appointment to a new slot.
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	appointment, _, ok := h.load(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
		return
	}

	if err := h.engine.Reschedule(r.Context(), appointment, date, req.Time); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(appointment))
}

// Cancel transitions an appointment to cancelled.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	appointment, _, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.engine.Cancel(r.Context(), appointment); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(appointment))
}

// load fetches the appointment in the path and enforces customer ownership.
// The not-found message does not reveal whether the record exists.
func (h *AppointmentHandler) load(w http.ResponseWriter, r *http.Request) (*models.Appointment, *models.User, bool) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, nil, false
	}
	appointment, err := h.appointments.FindAppointmentByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return nil, nil, false
	}
	if !actor.IsStaff() && appointment.CustomerID != actor.ID.Hex() {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return nil, nil, false
	}
	return appointment, actor, true
}

func (h *AppointmentHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSchedulingConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrRescheduleFinal),
		errors.Is(err, scheduling.ErrCancelCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduling.ErrVehicleNotOwned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, scheduling.ErrServiceUnknown), errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "Referenced record not found")
	case errors.Is(err, scheduling.ErrServiceInactive), errors.Is(err, scheduling.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
