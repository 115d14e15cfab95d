// Package config provides environment-based configuration for the backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the backend.
type Config struct {
	// Database configuration
	DatabaseDSN string

	// Identity provider configuration
	Identity IdentityConfig

	// Component catalog
	CatalogPath string

	// Server configuration
	APIHost string
	APIPort int

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
}

// IdentityConfig holds identity provider settings. The keys are opaque
// secrets; JWTSecret is optional and enables local token verification.
type IdentityConfig struct {
	URL        string
	ServiceKey string
	AnonKey    string
	JWTSecret  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN: getEnv("DATABASE_URL", "postgres://localhost:5432/cloudcanvas?sslmode=disable"),
		Identity: IdentityConfig{
			URL:        getEnv("IDENTITY_URL", ""),
			ServiceKey: getEnv("IDENTITY_SERVICE_KEY", ""),
			AnonKey:    getEnv("IDENTITY_ANON_KEY", ""),
			JWTSecret:  getEnv("IDENTITY_JWT_SECRET", ""),
		},
		CatalogPath:     getEnv("CATALOG_PATH", "data/components.json"),
		APIHost:         getEnv("API_HOST", "0.0.0.0"),
		APIPort:         getIntEnv("API_PORT", 8080),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogJSON:         getBoolEnv("LOG_JSON", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Identity.JWTSecret == "" && c.Identity.URL == "" {
		return fmt.Errorf("IDENTITY_URL is required when IDENTITY_JWT_SECRET is not set")
	}
	if c.Identity.URL != "" && c.Identity.ServiceKey == "" && c.Identity.AnonKey == "" {
		return fmt.Errorf("IDENTITY_SERVICE_KEY or IDENTITY_ANON_KEY is required")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	return &Config{
		DatabaseDSN: getEnv("DATABASE_URL", "postgres://localhost:5432/cloudcanvas?sslmode=disable"),
		Identity: IdentityConfig{
			URL:        getEnv("IDENTITY_URL", "http://localhost:9999"),
			ServiceKey: getEnv("IDENTITY_SERVICE_KEY", ""),
			AnonKey:    getEnv("IDENTITY_ANON_KEY", "dev-anon-key"),
			JWTSecret:  getEnv("IDENTITY_JWT_SECRET", ""),
		},
		CatalogPath:     getEnv("CATALOG_PATH", "data/components.json"),
		APIHost:         getEnv("API_HOST", "0.0.0.0"),
		APIPort:         getIntEnv("API_PORT", 8080),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogJSON:         getBoolEnv("LOG_JSON", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
