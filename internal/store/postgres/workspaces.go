package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudcanvas/backend/internal/models"
	"github.com/cloudcanvas/backend/internal/store"
)

// WorkspaceStore implements store.WorkspaceStore using PostgreSQL.
type WorkspaceStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

// conn returns the queryable connection (transaction or database).
func (s *WorkspaceStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// List retrieves all workspaces owned by userID, nodes attached, most
// recently updated first.
func (s *WorkspaceStore) List(ctx context.Context, userID string) ([]*models.Workspace, error) {
	query := `
		SELECT id, name, user_id, created_at, updated_at
		FROM workspaces
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := s.conn().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		ws := &models.Workspace{}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning workspace row: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workspace rows: %w", err)
	}

	for _, ws := range workspaces {
		nodes, err := s.loadNodes(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		ws.Nodes = nodes
	}

	return workspaces, nil
}

// Create inserts a new workspace row with an empty node list.
func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	now := time.Now().UTC()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	if ws.UpdatedAt.IsZero() {
		ws.UpdatedAt = now
	}

	query := `
		INSERT INTO workspaces (id, name, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.conn().ExecContext(ctx, query,
		ws.ID, ws.Name, ws.OwnerID, ws.CreatedAt, ws.UpdatedAt,
	); err != nil {
		return fmt.Errorf("inserting workspace: %w", err)
	}

	if ws.Nodes == nil {
		ws.Nodes = []models.Node{}
	}
	return nil
}

// Get retrieves a workspace scoped by (id, owner). A workspace belonging to
// a different user is indistinguishable from a missing one.
func (s *WorkspaceStore) Get(ctx context.Context, id, userID string) (*models.Workspace, error) {
	query := `
		SELECT id, name, user_id, created_at, updated_at
		FROM workspaces
		WHERE id = $1 AND user_id = $2`

	ws := &models.Workspace{}
	err := s.conn().QueryRowContext(ctx, query, id, userID).Scan(
		&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("querying workspace: %w", err)
	}

	nodes, err := s.loadNodes(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	ws.Nodes = nodes

	return ws, nil
}

// Update renames the workspace and/or replaces its node set, refreshing
// updated_at. Node replacement is delete-then-insert inside a single
// transaction so concurrent readers never observe a partial node list.
func (s *WorkspaceStore) Update(ctx context.Context, id, userID string, patch store.WorkspacePatch) (*models.Workspace, error) {
	if s.tx != nil {
		return s.update(ctx, s.tx, id, userID, patch)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	ws, err := s.update(ctx, tx, id, userID, patch)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ws, nil
}

func (s *WorkspaceStore) update(ctx context.Context, tx *sql.Tx, id, userID string, patch store.WorkspacePatch) (*models.Workspace, error) {
	now := time.Now().UTC()

	query := `
		UPDATE workspaces
		SET name = COALESCE($3, name), updated_at = $4
		WHERE id = $1 AND user_id = $2`

	result, err := tx.ExecContext(ctx, query, id, userID, patch.Name, now)
	if err != nil {
		return nil, fmt.Errorf("updating workspace: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, store.ErrNotFound
	}

	if patch.Nodes != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE workspace_id = $1`, id); err != nil {
			return nil, fmt.Errorf("deleting workspace nodes: %w", err)
		}
		if err := insertNodes(ctx, tx, id, *patch.Nodes); err != nil {
			return nil, err
		}
	}

	txws := &WorkspaceStore{tx: tx, logger: s.logger}
	return txws.Get(ctx, id, userID)
}

// Delete removes the workspace; node rows are removed by the cascading
// foreign key.
func (s *WorkspaceStore) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM workspaces WHERE id = $1 AND user_id = $2`

	result, err := s.conn().ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// loadNodes returns the workspace's nodes in insertion order.
func (s *WorkspaceStore) loadNodes(ctx context.Context, workspaceID string) ([]models.Node, error) {
	query := `
		SELECT node_id, component_id, component_name, position, config_overrides
		FROM nodes
		WHERE workspace_id = $1
		ORDER BY seq`

	rows, err := s.conn().QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		var node models.Node
		var positionJSON, overridesJSON []byte

		if err := rows.Scan(&node.NodeID, &node.ComponentID, &node.ComponentName, &positionJSON, &overridesJSON); err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		if err := json.Unmarshal(positionJSON, &node.Position); err != nil {
			return nil, fmt.Errorf("unmarshaling node position: %w", err)
		}
		if len(overridesJSON) > 0 {
			if err := json.Unmarshal(overridesJSON, &node.ConfigOverrides); err != nil {
				return nil, fmt.Errorf("unmarshaling node config overrides: %w", err)
			}
		}

		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating node rows: %w", err)
	}

	return nodes, nil
}

func insertNodes(ctx context.Context, tx *sql.Tx, workspaceID string, nodes []models.Node) error {
	query := `
		INSERT INTO nodes (workspace_id, node_id, component_id, component_name, position, config_overrides)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, node := range nodes {
		positionJSON, err := json.Marshal(node.Position)
		if err != nil {
			return fmt.Errorf("marshaling node position: %w", err)
		}

		overrides := node.ConfigOverrides
		if overrides == nil {
			overrides = map[string]any{}
		}
		overridesJSON, err := json.Marshal(overrides)
		if err != nil {
			return fmt.Errorf("marshaling node config overrides: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query,
			workspaceID, node.NodeID, node.ComponentID, node.ComponentName, positionJSON, overridesJSON,
		); err != nil {
			return fmt.Errorf("inserting node: %w", err)
		}
	}

	return nil
}
