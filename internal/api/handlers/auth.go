package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cloudcanvas/backend/internal/api/middleware"
)

// AuthHandler serves identity information for authenticated requests.
type AuthHandler struct {
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Me handles GET /api/auth/me - returns the authenticated user's identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
