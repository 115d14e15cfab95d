package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cloudcanvas/backend/internal/identity"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userKey is the context key for the authenticated user identity.
const userKey contextKey = "user"

// GetUser extracts the authenticated user from the request context, or nil
// when the request is anonymous.
func GetUser(ctx context.Context) *identity.User {
	if u, ok := ctx.Value(userKey).(*identity.User); ok {
		return u
	}
	return nil
}

// WithUser returns a context carrying the given user identity.
func WithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// AuthMiddleware verifies bearer tokens against the identity provider.
type AuthMiddleware struct {
	verifier identity.Verifier
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(verifier identity.Verifier, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireUser rejects any request without a verifiable bearer token. The
// response never says why verification failed.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := identity.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthorized(w)
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Debug("token verification failed", "error", err)
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// OptionalUser attaches a user identity when a valid bearer token is
// present. An absent, malformed or unverifiable token collapses to an
// anonymous request; it never rejects.
func (m *AuthMiddleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := identity.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Invalid or expired token"}`))
}
