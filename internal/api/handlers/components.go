// Package handlers provides HTTP request handlers for the API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudcanvas/backend/internal/catalog"
)

// ComponentHandler serves the static component catalog.
type ComponentHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewComponentHandler creates a new component handler.
func NewComponentHandler(c *catalog.Catalog, logger *slog.Logger) *ComponentHandler {
	return &ComponentHandler{
		catalog: c,
		logger:  logger,
	}
}

// ListComponentsResponse wraps the component list.
type ListComponentsResponse struct {
	Components []catalog.Component `json:"components"`
}

// List handles GET /api/components - lists catalog components, optionally
// filtered by search query and category.
func (h *ComponentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")

	components := h.catalog.Search(query, category)

	WriteJSON(w, http.StatusOK, ListComponentsResponse{Components: components})
}

// Get handles GET /api/components/{componentID} - retrieves one component.
func (h *ComponentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "componentID")

	component, ok := h.catalog.ByID(id)
	if !ok {
		WriteNotFound(w, "Component not found")
		return
	}

	WriteJSON(w, http.StatusOK, component)
}
