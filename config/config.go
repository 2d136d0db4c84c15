package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - gateway.go: Remote gateway endpoint and credentials
//   - auth.go: Authentication mode and dev identity
//   - database.go: Database and redis configuration
//   - sync.go: Session synchronization and booking feedback
//   - observability.go: Metrics emission
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Gateway is the remote auth + data backend.
	Gateway GatewayConfig `envPrefix:"GATEWAY_"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Session synchronizer configuration
	Sync SyncConfig `envPrefix:"SYNC_"`

	// Booking feedback configuration
	Booking BookingConfig `envPrefix:"BOOKING_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Gateway.Sanitize()
	c.Sync.Sanitize()
	c.Booking.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GatewayError reports why the remote gateway cannot be used, or nil.
// Mock auth mode never talks to the gateway so it is always usable.
func (c *AppConfig) GatewayError() error {
	if c.Auth.Mode == AuthModeMock {
		return nil
	}
	return c.Gateway.Validate()
}
