// Package models defines the persisted domain types.
package models

import "time"

// Position is the 2-D canvas coordinate of a node in a diagram.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a catalog component placed into a workspace, with configuration
// overrides merged over the component's defaults at cost-calculation time.
type Node struct {
	NodeID          string         `json:"nodeId"`
	ComponentID     string         `json:"componentId"`
	ComponentName   string         `json:"componentName,omitempty"`
	Position        Position       `json:"position"`
	ConfigOverrides map[string]any `json:"configOverrides,omitempty"`
}

// Workspace is a user-owned named collection of nodes representing an
// architecture diagram. Nodes are kept in insertion order.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner"`
	Nodes     []Node    `json:"nodes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
