package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaydev/auto-shop/internal/auth"
	"github.com/mkaydev/auto-shop/internal/chat"
	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
)

// ChatHandler exposes the chat pipeline. Chat is open to anonymous visitors;
// a valid bearer token attaches the customer's profile to the session.
type ChatHandler struct {
	pipeline    *chat.Pipeline
	authService *auth.Service
	users       db.UserCollection
	vehicles    db.VehicleCollection
}

// NewChatHandler creates the chat handler.
func NewChatHandler(pipeline *chat.Pipeline, authService *auth.Service, users db.UserCollection, vehicles db.VehicleCollection) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, authService: authService, users: users, vehicles: vehicles}
}

// optionalActor resolves the user from a bearer token when one is supplied.
// Invalid tokens just mean an anonymous chat, not a rejected request.
func (h *ChatHandler) optionalActor(r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil
	}
	claims, err := h.authService.ValidateToken(header)
	if err != nil {
		return nil
	}
	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

type chatMessageRequest struct {
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
	AppointmentID string `json:"appointment_id"`
	VehicleID     string `json:"vehicle_id"`
}

// SendMessage handles one chat turn. The response always carries an
// assistant reply; collaborator failures surface as the fallback text, not
// as errors.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	resp, err := h.pipeline.SendMessage(r.Context(), chat.TurnRequest{
		SessionID:     req.SessionID,
		Message:       req.Message,
		AppointmentID: req.AppointmentID,
		VehicleID:     req.VehicleID,
		Actor:         h.optionalActor(r),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// History returns a session's message log.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	session, err := h.pipeline.History(r.Context(), r.PathValue("id"), h.optionalActor(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
