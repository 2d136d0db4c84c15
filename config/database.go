package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"zenithflow"`
	Password string `env:"PASSWORD" envDefault:"zenithflow"`
	Name     string `env:"NAME"     envDefault:"zenithflow"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the CLI applies migrations before running a command.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"false"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// Enabled turns on session persistence and cross-process session events.
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// SessionPrefix namespaces persisted session keys.
	SessionPrefix string `env:"SESSION_PREFIX" envDefault:"zenithflow:session:"`

	// SessionTTL bounds how long a persisted session stays restorable.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// EventsChannel is the Pub/Sub channel carrying session change events.
	EventsChannel string `env:"EVENTS_CHANNEL" envDefault:"zenithflow:session-events"`
}
