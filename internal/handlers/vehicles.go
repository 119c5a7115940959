package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
)

// VehicleHandler is thin CRUD glue over the vehicle collection.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	users    db.UserCollection
}

// NewVehicleHandler creates the vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, users db.UserCollection) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, users: users}
}

type createVehicleRequest struct {
	OwnerID      string  `json:"owner_id"`
	VIN          string  `json:"vin"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Mileage      float64 `json:"mileage"`
	LicensePlate string  `json:"license_plate"`
	Color        string  `json:"color"`
}

// Create registers a vehicle. Customers register their own; staff can
// register on a customer's behalf.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.ValidateVIN(req.VIN); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ownerID := req.OwnerID
	if actor.Role == models.RoleCustomer || ownerID == "" {
		ownerID = actor.ID.Hex()
	}

	vehicle := &models.Vehicle{
		OwnerID:      ownerID,
		VIN:          models.NormalizeVIN(req.VIN),
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Mileage:      req.Mileage,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
	}
	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		// The unique VIN index rejects duplicates at the store level.
		writeError(w, http.StatusConflict, "A vehicle with this VIN already exists")
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// List returns the caller's vehicles, or any owner's for staff via ?owner_id=.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ownerID := actor.ID.Hex()
	if actor.IsStaff() {
		if q := r.URL.Query().Get("owner_id"); q != "" {
			ownerID = q
		}
	}
	vehicles, err := h.vehicles.FindVehiclesByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle with its history logs.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	if !actor.IsStaff() && vehicle.OwnerID != actor.ID.Hex() {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Update edits mutable vehicle fields. The VIN never changes once stored.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	existing, err := h.vehicles.FindVehicleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	if !actor.IsStaff() && existing.OwnerID != actor.ID.Hex() {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	updated := *existing
	updated.Make = req.Make
	updated.Model = req.Model
	updated.Year = req.Year
	updated.Mileage = req.Mileage
	updated.LicensePlate = req.LicensePlate
	updated.Color = req.Color

	if err := h.vehicles.UpdateVehicle(r.Context(), existing.ID.Hex(), updated); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
