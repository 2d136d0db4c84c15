package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/zenithflow/internal/migrate"
)

// RunMigrations delegates to the shared migrate package to apply production migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}

// TestDBConfig holds configuration for test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// Defaults to port 55432 (local test DB from docker-compose test profile).
// CI/CD environments should set TEST_DB_PORT=5432 explicitly.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "zenithflow"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "zenithflow"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "zenithflow"),
	}
}

// DSN renders the configuration as a postgres URL without search_path.
func (c TestDBConfig) DSN() string {
	hostPort := net.JoinHostPort(c.Host, c.Port)
	sslMode := getEnvOrDefault("DB_SSL_MODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", c.User, c.Password, hostPort, c.DBName, sslMode)
}

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

// SkipIfNoTestDB skips the test if test database is not available.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN())
	if err != nil {
		skipOrFail(t, requireDB(), "Test database not available:", err)
		return
	}
	defer closeAndLog(t, "test db", db)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		skipOrFail(t, requireDB(), "Test database not available:", pingErr)
	}
}

// SetupEphemeralSchemaDB creates a unique schema per test, sets search_path to it, runs migrations,
// and registers cleanup to drop the schema after the test completes.
func SetupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	adminDB := openDB(t, DefaultTestDBConfig().DSN())
	schema := generateSchemaName()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := adminDB.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		closeAndLog(t, "admin DB", adminDB)
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	u, err := url.Parse(DefaultTestDBConfig().DSN())
	if err != nil {
		closeAndLog(t, "admin DB", adminDB)
		t.Fatal("Failed to parse DSN:", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()
	db := openDB(t, u.String())

	// Register cleanup before running migrations to ensure resources are released even if migrations fail.
	t.Logf("Using ephemeral schema: %s", schema)
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer ccancel()
		closeAndLog(t, "schema DB", db)
		if _, err := adminDB.ExecContext(cctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("Warning: failed to drop schema %s: %v", schema, err)
		}
		closeAndLog(t, "admin DB", adminDB)
	})

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatal("Failed to run migrations in ephemeral schema:", err)
	}
	return db
}

// WithEphemeralDB wraps SetupEphemeralSchemaDB and runs the provided function.
func WithEphemeralDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	fn(SetupEphemeralSchemaDB(t))
}

func openDB(t TestingTB, dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("Failed to open DB:", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeAndLog(t, "DB", db)
		t.Fatal("Failed to ping DB:", err)
	}
	return db
}

// generateSchemaName creates a lowercase alphanumeric schema name with prefix.
func generateSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func skipOrFail(t TestingTB, required bool, args ...any) {
	t.Helper()
	if required {
		t.Fatal(args...)
	}
	t.Skip(args...)
}

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func requireDB() bool { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }

// Redis test utilities

// SetupMiniRedis starts an in-process Redis server and returns it with a connected client.
// Both are closed when the test finishes.
func SetupMiniRedis(t TestingTB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		closeAndLog(t, "redis client", client)
		mr.Close()
	})
	return mr, client
}

// SetupTestRedis returns a client for TEST_REDIS_ADDR when set and reachable,
// otherwise a client backed by miniredis. The selected database is flushed.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		_, client := SetupMiniRedis(t)
		return client
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		t.Logf("Redis not available at %s (%v); using miniredis", addr, err)
		_, mini := SetupMiniRedis(t)
		return mini
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Logf("warning: flush test redis: %v", err)
	}
	t.Cleanup(func() { closeAndLog(t, "redis client", client) })
	return client
}

// StringPtr returns a pointer to the given string value.
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to the given time value.
func TimePtr(t time.Time) *time.Time {
	return &t
}
