// Package api provides the HTTP API server.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudcanvas/backend/internal/api/handlers"
	"github.com/cloudcanvas/backend/internal/api/health"
	"github.com/cloudcanvas/backend/internal/api/middleware"
	"github.com/cloudcanvas/backend/internal/catalog"
	"github.com/cloudcanvas/backend/internal/identity"
	"github.com/cloudcanvas/backend/internal/pricing"
	"github.com/cloudcanvas/backend/internal/store"
	"github.com/cloudcanvas/backend/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the HTTP API server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	store         store.Store
	catalog       *catalog.Catalog
	calculator    *pricing.Calculator
	verifier      identity.Verifier
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, st store.Store, cat *catalog.Catalog, verifier identity.Verifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:      st,
		catalog:    cat,
		calculator: pricing.NewCalculator(cat),
		verifier:   verifier,
		config:     cfg,
		logger:     logger,
	}

	s.healthChecker = health.NewChecker(st, Version)

	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health and metrics endpoints (no auth required)
	r.Get("/health", s.healthChecker.Handler())
	r.Handle("/metrics", promhttp.Handler())

	authMiddleware := middleware.NewAuthMiddleware(s.verifier, s.logger)

	r.Route("/api", func(r chi.Router) {
		// Identity endpoint
		authHandler := handlers.NewAuthHandler(s.logger)
		r.With(authMiddleware.RequireUser).Get("/auth/me", authHandler.Me)

		// Catalog routes (public)
		componentHandler := handlers.NewComponentHandler(s.catalog, s.logger)
		r.Route("/components", func(r chi.Router) {
			r.Get("/", componentHandler.List)
			r.Get("/{componentID}", componentHandler.Get)
		})

		// Cost estimation (anonymous access tolerated)
		costHandler := handlers.NewCostHandler(s.calculator, s.logger)
		r.With(authMiddleware.OptionalUser).Post("/cost/calculate", costHandler.Calculate)

		// Workspace routes (auth required)
		workspaceHandler := handlers.NewWorkspaceHandler(s.store, s.logger)
		r.Route("/workspaces", func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Get("/", workspaceHandler.List)
			r.Post("/", workspaceHandler.Create)
			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.Get)
				r.Put("/", workspaceHandler.Update)
				r.Delete("/", workspaceHandler.Delete)
			})
		})
	})

	s.router = r
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
