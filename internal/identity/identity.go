// Package identity verifies bearer tokens against the external identity
// provider and resolves them into user identities.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for any token that cannot be verified.
// Expired, malformed, missing and provider-unreachable all collapse into it
// so callers cannot tell the cases apart.
var ErrUnauthenticated = errors.New("authentication failed")

// DefaultRole is assigned when the provider reports no role for a user.
const DefaultRole = "authenticated"

// User is the identity derived from a verified token. It lives only for the
// duration of a request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier resolves a bearer token into a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// Config holds identity provider configuration. URL, ServiceKey and AnonKey
// address the remote provider; JWTSecret, when set, enables local HS256
// verification without a network round trip.
type Config struct {
	URL        string
	ServiceKey string
	AnonKey    string
	JWTSecret  string
	Timeout    time.Duration
}

// Client verifies tokens either locally against the provider's signing
// secret or remotely against its user endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	jwtSecret  []byte
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an identity provider client.
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	// The service key outranks the anon key for provider calls.
	apiKey := cfg.ServiceKey
	if apiKey == "" {
		apiKey = cfg.AnonKey
	}

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     apiKey,
		jwtSecret:  secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Verify resolves a bearer token into a user identity. Any failure,
// whatever the cause, surfaces as ErrUnauthenticated.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	if len(c.jwtSecret) > 0 {
		return c.verifyLocal(token)
	}
	return c.verifyRemote(ctx, token)
}

// verifyLocal validates the token signature and expiry against the
// provider's HS256 signing secret and extracts the identity claims.
func (c *Client) verifyLocal(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		c.logger.Debug("token validation failed", "error", err)
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, ErrUnauthenticated
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = DefaultRole
	}

	return &User{ID: userID, Email: email, Role: role}, nil
}

// verifyRemote asks the provider's user endpoint to validate the token.
func (c *Client) verifyRemote(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		c.logger.Debug("building provider request failed", "error", err)
		return nil, ErrUnauthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("identity provider unreachable", "error", err)
		return nil, ErrUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("identity provider rejected token", "status", resp.StatusCode)
		return nil, ErrUnauthenticated
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		c.logger.Debug("decoding provider response failed", "error", err)
		return nil, ErrUnauthenticated
	}
	if user.ID == "" {
		return nil, ErrUnauthenticated
	}
	if user.Role == "" {
		user.Role = DefaultRole
	}

	return &user, nil
}

// ExtractBearerToken extracts the token from a Bearer authorization header.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
