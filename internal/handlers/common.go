package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/middleware"
	"github.com/mkaydev/auto-shop/internal/models"
)

// errorResponse is the JSON body for every failed request: a human-readable
// message, never a stack trace.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// actorFromContext resolves the authenticated user record from the request
// claims. Returns nil when the request is anonymous.
func actorFromContext(ctx context.Context, users db.UserCollection) *models.User {
	claims, ok := middleware.GetUserFromContext(ctx)
	if !ok {
		return nil
	}
	user, err := users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}
	return user
}
