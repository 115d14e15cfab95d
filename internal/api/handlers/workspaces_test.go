package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcanvas/backend/internal/api/middleware"
	"github.com/cloudcanvas/backend/internal/identity"
	"github.com/cloudcanvas/backend/internal/models"
	"github.com/cloudcanvas/backend/internal/store"
)

// memStore is an in-memory store.Store used to exercise handlers without a
// database. It enforces the same owner scoping as the real store.
type memStore struct {
	workspaces map[string]*models.Workspace
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{workspaces: make(map[string]*models.Workspace)}
}

func (s *memStore) Workspaces() store.WorkspaceStore { return s }
func (s *memStore) Ping(_ context.Context) error     { return nil }
func (s *memStore) Close() error                     { return nil }

func (s *memStore) WithTx(_ context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *memStore) List(_ context.Context, userID string) ([]*models.Workspace, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []*models.Workspace
	for _, ws := range s.workspaces {
		if ws.OwnerID == userID {
			out = append(out, copyWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *memStore) Create(_ context.Context, ws *models.Workspace) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.workspaces[ws.ID] = copyWorkspace(ws)
	return nil
}

func (s *memStore) Get(_ context.Context, id, userID string) (*models.Workspace, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	ws, ok := s.workspaces[id]
	if !ok || ws.OwnerID != userID {
		return nil, store.ErrNotFound
	}
	return copyWorkspace(ws), nil
}

func (s *memStore) Update(_ context.Context, id, userID string, patch store.WorkspacePatch) (*models.Workspace, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	ws, ok := s.workspaces[id]
	if !ok || ws.OwnerID != userID {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		ws.Name = *patch.Name
	}
	if patch.Nodes != nil {
		ws.Nodes = append([]models.Node(nil), (*patch.Nodes)...)
	}
	ws.UpdatedAt = time.Now().UTC()
	return copyWorkspace(ws), nil
}

func (s *memStore) Delete(_ context.Context, id, userID string) error {
	if s.failWith != nil {
		return s.failWith
	}
	ws, ok := s.workspaces[id]
	if !ok || ws.OwnerID != userID {
		return store.ErrNotFound
	}
	delete(s.workspaces, id)
	return nil
}

func copyWorkspace(ws *models.Workspace) *models.Workspace {
	cp := *ws
	cp.Nodes = append([]models.Node(nil), ws.Nodes...)
	return &cp
}

// workspaceRouter mounts the workspace routes with a fixed authenticated
// user, mirroring the production route layout.
func workspaceRouter(st store.Store, user *identity.User) http.Handler {
	h := NewWorkspaceHandler(st, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(middleware.WithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/workspaces", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{workspaceID}", h.Get)
		r.Put("/{workspaceID}", h.Update)
		r.Delete("/{workspaceID}", h.Delete)
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeWorkspace(t *testing.T, rec *httptest.ResponseRecorder) models.Workspace {
	t.Helper()
	var ws models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ws))
	return ws
}

var testUser = &identity.User{ID: "user-1", Email: "dev@example.com", Role: "authenticated"}

func TestWorkspaceCreate(t *testing.T) {
	router := workspaceRouter(newMemStore(), testUser)

	rec := doJSON(t, router, http.MethodPost, "/api/workspaces", CreateWorkspaceRequest{Name: "My Architecture"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ws := decodeWorkspace(t, rec)
	assert.NotEmpty(t, ws.ID)
	assert.Equal(t, "My Architecture", ws.Name)
	assert.Equal(t, "user-1", ws.OwnerID)
	assert.Empty(t, ws.Nodes)
	assert.False(t, ws.CreatedAt.IsZero())
}

func TestWorkspaceCreateValidation(t *testing.T) {
	router := workspaceRouter(newMemStore(), testUser)

	t.Run("empty name", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/workspaces", CreateWorkspaceRequest{Name: "   "})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"name is required"}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/workspaces", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
	})
}

func TestWorkspaceList(t *testing.T) {
	st := newMemStore()
	router := workspaceRouter(st, testUser)

	t.Run("empty list is an empty array", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/workspaces", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"workspaces":[]}`, rec.Body.String())
	})

	t.Run("only the caller's workspaces, newest first", func(t *testing.T) {
		base := time.Now().UTC()
		for i, owner := range []string{"user-1", "user-1", "someone-else"} {
			require.NoError(t, st.Create(context.Background(), &models.Workspace{
				ID:        fmt.Sprintf("ws-%d", i),
				Name:      fmt.Sprintf("workspace %d", i),
				OwnerID:   owner,
				UpdatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		rec := doJSON(t, router, http.MethodGet, "/api/workspaces", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListWorkspacesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Workspaces, 2)
		assert.Equal(t, "ws-1", resp.Workspaces[0].ID)
		assert.Equal(t, "ws-0", resp.Workspaces[1].ID)
	})
}

func TestWorkspaceGet(t *testing.T) {
	st := newMemStore()
	router := workspaceRouter(st, testUser)

	require.NoError(t, st.Create(context.Background(), &models.Workspace{
		ID:      "ws-1",
		Name:    "mine",
		OwnerID: "user-1",
		Nodes: []models.Node{
			{NodeID: "n1", ComponentID: "aws-lambda", Position: models.Position{X: 10, Y: 20}},
		},
	}))
	require.NoError(t, st.Create(context.Background(), &models.Workspace{
		ID:      "ws-2",
		Name:    "theirs",
		OwnerID: "someone-else",
	}))

	t.Run("owned workspace", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/workspaces/ws-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		ws := decodeWorkspace(t, rec)
		assert.Equal(t, "mine", ws.Name)
		require.Len(t, ws.Nodes, 1)
		assert.Equal(t, "aws-lambda", ws.Nodes[0].ComponentID)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/workspaces/no-such-id", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Workspace not found"}`, rec.Body.String())
	})

	t.Run("someone else's workspace looks identical to a missing one", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/workspaces/ws-2", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Workspace not found"}`, rec.Body.String())
	})
}

func TestWorkspaceUpdate(t *testing.T) {
	st := newMemStore()
	router := workspaceRouter(st, testUser)

	require.NoError(t, st.Create(context.Background(), &models.Workspace{
		ID:      "ws-1",
		Name:    "before",
		OwnerID: "user-1",
		Nodes: []models.Node{
			{NodeID: "n1", ComponentID: "aws-lambda"},
		},
	}))

	t.Run("rename leaves nodes untouched", func(t *testing.T) {
		name := "after"
		rec := doJSON(t, router, http.MethodPut, "/api/workspaces/ws-1", UpdateWorkspaceRequest{Name: &name})
		require.Equal(t, http.StatusOK, rec.Code)

		ws := decodeWorkspace(t, rec)
		assert.Equal(t, "after", ws.Name)
		require.Len(t, ws.Nodes, 1)
		assert.Equal(t, "n1", ws.Nodes[0].NodeID)
	})

	t.Run("nodes are replaced wholesale", func(t *testing.T) {
		nodes := []models.Node{
			{NodeID: "n2", ComponentID: "aws-s3", Position: models.Position{X: 1, Y: 2}},
			{NodeID: "n3", ComponentID: "aws-rds", ConfigOverrides: map[string]any{"storageGB": float64(100)}},
		}
		rec := doJSON(t, router, http.MethodPut, "/api/workspaces/ws-1", UpdateWorkspaceRequest{Nodes: &nodes})
		require.Equal(t, http.StatusOK, rec.Code)

		ws := decodeWorkspace(t, rec)
		require.Len(t, ws.Nodes, 2)
		assert.Equal(t, "n2", ws.Nodes[0].NodeID)
		assert.Equal(t, "n3", ws.Nodes[1].NodeID)
	})

	t.Run("empty node list clears the canvas", func(t *testing.T) {
		nodes := []models.Node{}
		rec := doJSON(t, router, http.MethodPut, "/api/workspaces/ws-1", UpdateWorkspaceRequest{Nodes: &nodes})
		require.Equal(t, http.StatusOK, rec.Code)

		ws := decodeWorkspace(t, rec)
		assert.Empty(t, ws.Nodes)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		name := "  "
		rec := doJSON(t, router, http.MethodPut, "/api/workspaces/ws-1", UpdateWorkspaceRequest{Name: &name})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"name must not be empty"}`, rec.Body.String())
	})

	t.Run("unknown workspace", func(t *testing.T) {
		name := "whatever"
		rec := doJSON(t, router, http.MethodPut, "/api/workspaces/nope", UpdateWorkspaceRequest{Name: &name})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWorkspaceDelete(t *testing.T) {
	st := newMemStore()
	router := workspaceRouter(st, testUser)

	require.NoError(t, st.Create(context.Background(), &models.Workspace{
		ID:      "ws-1",
		Name:    "doomed",
		OwnerID: "user-1",
	}))

	rec := doJSON(t, router, http.MethodDelete, "/api/workspaces/ws-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/ws-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/workspaces/ws-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkspaceUnauthenticated(t *testing.T) {
	router := workspaceRouter(newMemStore(), nil)

	rec := doJSON(t, router, http.MethodGet, "/api/workspaces", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, rec.Body.String())
}

func TestWorkspaceStoreFailure(t *testing.T) {
	st := newMemStore()
	st.failWith = errors.New("connection refused")
	router := workspaceRouter(st, testUser)

	rec := doJSON(t, router, http.MethodGet, "/api/workspaces", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to list workspaces"}`, rec.Body.String())
}
