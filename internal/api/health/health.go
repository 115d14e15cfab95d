// Package health provides health check functionality for API components.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ComponentStatus represents the health of a single dependency.
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response represents the health check response.
type Response struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
}

// Pinger is an interface for components that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker performs health checks against the service's dependencies.
type Checker struct {
	pinger    Pinger
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewChecker creates a new health checker.
func NewChecker(pinger Pinger, version string) *Checker {
	return &Checker{
		pinger:    pinger,
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// Check performs all health checks and returns the aggregated response.
func (c *Checker) Check(ctx context.Context) *Response {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	components := make(map[string]ComponentStatus)

	dbStatus := ComponentStatus{Status: "ok"}
	if c.pinger == nil {
		dbStatus = ComponentStatus{Status: "error", Message: "database connection not configured"}
	} else if err := c.pinger.Ping(checkCtx); err != nil {
		dbStatus = ComponentStatus{Status: "error", Message: "database ping failed"}
	}
	components["database"] = dbStatus

	overall := "ok"
	for _, comp := range components {
		if comp.Status != "ok" {
			overall = "error"
			break
		}
	}

	return &Response{
		Status:     overall,
		Components: components,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
	}
}

// Handler returns an http.HandlerFunc serving the health check.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := c.Check(r.Context())

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}
