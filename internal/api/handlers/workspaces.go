package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cloudcanvas/backend/internal/api/middleware"
	"github.com/cloudcanvas/backend/internal/models"
	"github.com/cloudcanvas/backend/internal/store"
)

// WorkspaceHandler handles workspace-related HTTP requests. Every operation
// is scoped to the authenticated user.
type WorkspaceHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(st store.Store, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		store:  st,
		logger: logger,
	}
}

// CreateWorkspaceRequest is the request body for creating a workspace.
type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

// UpdateWorkspaceRequest is the request body for updating a workspace. Nil
// fields are left untouched; a non-nil Nodes replaces the node set wholesale.
type UpdateWorkspaceRequest struct {
	Name  *string        `json:"name"`
	Nodes *[]models.Node `json:"nodes"`
}

// ListWorkspacesResponse wraps the workspace list.
type ListWorkspacesResponse struct {
	Workspaces []*models.Workspace `json:"workspaces"`
}

// DeleteWorkspaceResponse acknowledges a deletion.
type DeleteWorkspaceResponse struct {
	Success bool `json:"success"`
}

// List handles GET /api/workspaces - lists the caller's workspaces, most
// recently updated first.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	workspaces, err := h.store.Workspaces().List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list workspaces", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to list workspaces")
		return
	}

	if workspaces == nil {
		workspaces = []*models.Workspace{}
	}

	WriteJSON(w, http.StatusOK, ListWorkspacesResponse{Workspaces: workspaces})
}

// Create handles POST /api/workspaces - creates an empty workspace owned by
// the caller.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	var req CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteUnprocessable(w, "name is required")
		return
	}

	now := time.Now().UTC()
	ws := &models.Workspace{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   user.ID,
		Nodes:     []models.Node{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Workspaces().Create(r.Context(), ws); err != nil {
		h.logger.Error("failed to create workspace", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to create workspace")
		return
	}

	h.logger.Info("workspace created", "workspace_id", ws.ID, "name", ws.Name, "user_id", user.ID)
	WriteJSON(w, http.StatusCreated, ws)
}

// Get handles GET /api/workspaces/{workspaceID} - retrieves one workspace
// with its node list.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	id := chi.URLParam(r, "workspaceID")

	ws, err := h.store.Workspaces().Get(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Workspace not found")
			return
		}
		h.logger.Error("failed to get workspace", "error", err, "workspace_id", id)
		WriteInternalError(w, "Failed to get workspace")
		return
	}

	WriteJSON(w, http.StatusOK, ws)
}

// Update handles PUT /api/workspaces/{workspaceID} - renames the workspace
// and/or replaces its node list.
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	id := chi.URLParam(r, "workspaceID")

	var req UpdateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteUnprocessable(w, "name must not be empty")
		return
	}

	patch := store.WorkspacePatch{
		Name:  req.Name,
		Nodes: req.Nodes,
	}

	ws, err := h.store.Workspaces().Update(r.Context(), id, user.ID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Workspace not found")
			return
		}
		h.logger.Error("failed to update workspace", "error", err, "workspace_id", id)
		WriteInternalError(w, "Failed to update workspace")
		return
	}

	h.logger.Info("workspace updated", "workspace_id", ws.ID, "user_id", user.ID)
	WriteJSON(w, http.StatusOK, ws)
}

// Delete handles DELETE /api/workspaces/{workspaceID} - deletes a workspace
// and, by cascade, its nodes.
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	id := chi.URLParam(r, "workspaceID")

	if err := h.store.Workspaces().Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Workspace not found")
			return
		}
		h.logger.Error("failed to delete workspace", "error", err, "workspace_id", id)
		WriteInternalError(w, "Failed to delete workspace")
		return
	}

	h.logger.Info("workspace deleted", "workspace_id", id, "user_id", user.ID)
	WriteJSON(w, http.StatusOK, DeleteWorkspaceResponse{Success: true})
}
