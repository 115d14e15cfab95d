// Package store provides database access interfaces for workspace persistence.
package store

import (
	"context"
	"errors"

	"github.com/cloudcanvas/backend/internal/models"
)

// ErrNotFound is returned when a workspace does not exist or is not owned by
// the requesting user. The two cases are deliberately indistinguishable so
// that existence is never leaked to non-owners.
var ErrNotFound = errors.New("workspace not found")

// WorkspacePatch describes a partial workspace update. Nil fields are left
// untouched. A non-nil Nodes replaces the node set wholesale; there is no
// merging of individual nodes.
type WorkspacePatch struct {
	Name  *string
	Nodes *[]models.Node
}

// WorkspaceStore defines operations on user-owned workspaces. Every
// operation is scoped by the owning user ID; no operation may read or mutate
// a workspace belonging to a different user.
type WorkspaceStore interface {
	// List retrieves all workspaces owned by userID with nodes attached,
	// most recently updated first.
	List(ctx context.Context, userID string) ([]*models.Workspace, error)
	// Create inserts a new workspace row.
	Create(ctx context.Context, ws *models.Workspace) error
	// Get retrieves a workspace with nodes attached, or ErrNotFound if it
	// does not exist or is not owned by userID.
	Get(ctx context.Context, id, userID string) (*models.Workspace, error)
	// Update applies the patch and refreshes updated_at, returning the
	// post-update record. Node replacement is atomic.
	Update(ctx context.Context, id, userID string, patch WorkspacePatch) (*models.Workspace, error)
	// Delete removes a workspace; owned nodes are removed by cascade.
	Delete(ctx context.Context, id, userID string) error
}

// Store is the main interface for database operations.
type Store interface {
	// Workspaces returns the WorkspaceStore for workspace operations.
	Workspaces() WorkspaceStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
