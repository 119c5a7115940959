package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
)

// ServiceHandler is thin CRUD glue over the service catalog.
type ServiceHandler struct {
	services db.ServiceCollection
	users    db.UserCollection
}

// NewServiceHandler creates the catalog handler.
func NewServiceHandler(services db.ServiceCollection, users db.UserCollection) *ServiceHandler {
	return &ServiceHandler{services: services, users: users}
}

// List returns the active catalog. Open to any authenticated caller.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.FindActiveServices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list services")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// Create adds a catalog entry. Staff only.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context(), h.users)
	if actor == nil || !actor.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff only")
		return
	}

	var service models.Service
	if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if service.Name == "" || service.BasePrice < 0 || service.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "Name, non-negative price and positive duration are required")
		return
	}
	service.IsActive = true

	if err := h.services.InsertService(r.Context(), &service); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create service")
		return
	}
	writeJSON(w, http.StatusCreated, service)
}

// Quote prices a service against a specific vehicle.
func (h *ServiceHandler) Quote(w http.ResponseWriter, r *http.Request) {
	service, err := h.services.FindServiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}

	var vehicle *models.Vehicle
	if make := r.URL.Query().Get("make"); make != "" {
		vehicle = &models.Vehicle{Make: make}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    service.Name,
		"total_cost": service.TotalCost(vehicle),
		"duration":   service.Duration,
	})
}
