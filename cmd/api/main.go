// Package main provides the entry point for the API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudcanvas/backend/internal/api"
	"github.com/cloudcanvas/backend/internal/catalog"
	"github.com/cloudcanvas/backend/internal/identity"
	pgstore "github.com/cloudcanvas/backend/internal/store/postgres"
	"github.com/cloudcanvas/backend/pkg/config"
	"github.com/cloudcanvas/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.LogJSON)

	// Initialize database store
	storeCfg := pgstore.DefaultConfig(cfg.DatabaseDSN)
	store, err := pgstore.NewPostgresStore(storeCfg, log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		log.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	// Load the component catalog
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load component catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	log.Info("component catalog loaded", "components", cat.Len(), "path", cfg.CatalogPath)

	// Initialize identity provider client
	verifier := identity.NewClient(&identity.Config{
		URL:        cfg.Identity.URL,
		ServiceKey: cfg.Identity.ServiceKey,
		AnonKey:    cfg.Identity.AnonKey,
		JWTSecret:  cfg.Identity.JWTSecret,
	}, log.Logger)

	// Create the API server
	server := api.NewServer(cfg, store, cat, verifier, log.Logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Start the server
	log.Info("starting API server",
		"host", cfg.APIHost,
		"port", cfg.APIPort,
	)

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	// Give time for graceful shutdown
	time.Sleep(100 * time.Millisecond)
	log.Info("server stopped")
}
