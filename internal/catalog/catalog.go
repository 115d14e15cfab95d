// Package catalog loads and serves the static cloud component catalog.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Component describes a cloud service type, its configurable parameters and
// pricing rates. Components are immutable once loaded.
type Component struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Provider    string             `json:"provider,omitempty"`
	Category    string             `json:"category"`
	Description string             `json:"description,omitempty"`
	Icon        string             `json:"icon,omitempty"`
	Config      map[string]any     `json:"config"`
	Pricing     map[string]float64 `json:"pricing"`
}

// Catalog is a read-only component catalog, built once at startup and passed
// by reference to everything that needs it.
type Catalog struct {
	components []Component
	byID       map[string]int
}

// Load reads the catalog from a JSON file containing an array of components.
// A missing or malformed file is an error; an empty array is a valid,
// degraded catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var components []Component
	if err := json.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	return New(components), nil
}

// New builds a catalog from the given components.
func New(components []Component) *Catalog {
	byID := make(map[string]int, len(components))
	for i, c := range components {
		byID[c.ID] = i
	}
	return &Catalog{
		components: components,
		byID:       byID,
	}
}

// All returns every component in the catalog.
func (c *Catalog) All() []Component {
	return c.components
}

// ByID returns the component with the given ID, if present.
func (c *Catalog) ByID(id string) (Component, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Component{}, false
	}
	return c.components[i], true
}

// Search filters components by a case-insensitive substring match on name or
// description, and by exact category. Empty filters match everything; both
// filters are ANDed when present.
func (c *Catalog) Search(query, category string) []Component {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Component, 0, len(c.components))
	for _, comp := range c.components {
		if category != "" && comp.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(comp.Name), query) &&
			!strings.Contains(strings.ToLower(comp.Description), query) {
			continue
		}
		out = append(out, comp)
	}
	return out
}

// Len returns the number of components in the catalog.
func (c *Catalog) Len() int {
	return len(c.components)
}
