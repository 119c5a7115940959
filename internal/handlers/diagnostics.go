package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mkaydev/auto-shop/internal/chat"
	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/diagnostic"
	"github.com/mkaydev/auto-shop/internal/models"
	"github.com/mkaydev/auto-shop/internal/notify"
)

// DiagnosticsHandler exposes simulated scans and trouble-code explanations.
type DiagnosticsHandler struct {
	simulator *diagnostic.Simulator
	pipeline  *chat.Pipeline
	vehicles  db.VehicleCollection
	users     db.UserCollection
	notifier  notify.Notifier
}

// NewDiagnosticsHandler creates the diagnostics handler.
func NewDiagnosticsHandler(simulator *diagnostic.Simulator, pipeline *chat.Pipeline, vehicles db.VehicleCollection, users db.UserCollection, notifier notify.Notifier) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		simulator: simulator,
		pipeline:  pipeline,
		vehicles:  vehicles,
		users:     users,
		notifier:  notifier,
	}
}

type scanRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// Scan runs a simulated OBD scan against a vehicle and appends the result to
// its diagnostic history.
func (h *DiagnosticsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), req.VehicleID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	if !actor.IsStaff() && vehicle.OwnerID != actor.ID.Hex() {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	result := h.simulator.Scan(vehicle)
	record := models.DiagnosticRecord{
		Codes:     result.Codes,
		Source:    "simulated",
		ScannedAt: result.ScannedAt,
	}
	if err := h.vehicles.AppendDiagnosticRecord(r.Context(), req.VehicleID, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record scan")
		return
	}

	if result.HasIssues() {
		h.notifier.PublishStaff(notify.NewEvent("diagnostic.scan", map[string]interface{}{
			"vehicle_id": req.VehicleID,
			"codes":      len(result.Codes),
		}))
	}
	writeJSON(w, http.StatusOK, result)
}

// Explain returns a structured explanation for a trouble code. Supplying
// ?vehicle_id applies that vehicle's pricing (luxury makes cost more).
func (h *DiagnosticsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var vehicle *models.Vehicle
	if id := r.URL.Query().Get("vehicle_id"); id != "" {
		if v, err := h.vehicles.FindVehicleByID(r.Context(), id); err == nil {
			vehicle = v
		}
	}

	explanation, err := h.pipeline.ExplainCode(r.Context(), code, vehicle)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidCode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to explain code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"explanation": explanation,
		"cost_range":  explanation.CostRange(),
	})
}

type reportRequest struct {
	VehicleID string                  `json:"vehicle_id"`
	Codes     []models.DiagnosticCode `json:"codes"`
}

// Report records a manual scan performed by a technician.
func (h *DiagnosticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil || !actor.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff only")
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Codes) == 0 {
		writeError(w, http.StatusBadRequest, "At least one code is required")
		return
	}
	for _, c := range req.Codes {
		if !chat.IsTroubleCode(c.Code) {
			writeError(w, http.StatusBadRequest, "Invalid trouble code: "+c.Code)
			return
		}
	}

	record := models.DiagnosticRecord{
		Codes:      req.Codes,
		Source:     "manual",
		Technician: actor.ID.Hex(),
		ScannedAt:  time.Now(),
	}
	if err := h.vehicles.AppendDiagnosticRecord(r.Context(), req.VehicleID, record); err != nil {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
