package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Node rows reference their
// workspace with a cascading foreign key; seq preserves insertion order.
const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workspaces_user_updated
	ON workspaces (user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS nodes (
	seq              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	workspace_id     UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
	node_id          TEXT NOT NULL,
	component_id     TEXT NOT NULL,
	component_name   TEXT NOT NULL DEFAULT '',
	position         JSONB NOT NULL DEFAULT '{}',
	config_overrides JSONB NOT NULL DEFAULT '{}',
	UNIQUE (workspace_id, node_id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_workspace
	ON nodes (workspace_id, seq);
`

// Migrate applies the database schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	s.logger.Info("database schema applied")
	return nil
}
