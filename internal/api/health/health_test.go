package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheck(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		checker := NewChecker(pingerFunc(func(context.Context) error { return nil }), "1.2.3")

		resp := checker.Check(context.Background())
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Components["database"].Status)
		assert.Equal(t, "1.2.3", resp.Version)
	})

	t.Run("failing database", func(t *testing.T) {
		checker := NewChecker(pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		}), "1.2.3")

		resp := checker.Check(context.Background())
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, "error", resp.Components["database"].Status)
	})

	t.Run("no database configured", func(t *testing.T) {
		checker := NewChecker(nil, "1.2.3")

		resp := checker.Check(context.Background())
		assert.Equal(t, "error", resp.Status)
	})
}

func TestHandlerStatusCodes(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		checker := NewChecker(pingerFunc(func(context.Context) error { return nil }), "dev")

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		checker.Handler()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy returns 503", func(t *testing.T) {
		checker := NewChecker(pingerFunc(func(context.Context) error {
			return errors.New("down")
		}), "dev")

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		checker.Handler()(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
