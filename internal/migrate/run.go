package migrate

// Package migrate applies the embedded schema migrations: tenancy tables,
// the class schedule, bookings with their per-user uniqueness, and the
// capacity trigger.

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run applies all pending migrations. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := Apply(ctx, db, slog.Default())
	return err
}

// Apply applies pending migrations in version order and returns the versions
// it applied. Each migration runs in its own transaction.
func Apply(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrations")

	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	versions, err := Versions()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, v := range versions {
		ok, applyErr := applyMigration(ctx, db, v, logger)
		if applyErr != nil {
			return applied, applyErr
		}
		if ok {
			applied = append(applied, v)
		}
	}
	return applied, nil
}

// Pending returns the embedded versions not yet recorded in the database.
func Pending(ctx context.Context, db *sql.DB) ([]string, error) {
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	versions, err := Versions()
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, v := range versions {
		exists, existsErr := migrationExists(ctx, db, v)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

// Versions lists the embedded migration versions in apply order.
func Versions() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func migrationExists(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	if err := db.QueryRowContext(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}

func applyMigration(ctx context.Context, db *sql.DB, version string, logger *slog.Logger) (bool, error) {
	exists, err := migrationExists(ctx, db, version)
	if err != nil || exists {
		return false, err
	}

	sqlBytes, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", version, err)
	}

	logger.InfoContext(ctx, "applying migration", "version", version)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback transaction", "err", rollbackErr, "version", version)
		}
	}()

	if _, execErr := tx.ExecContext(ctx, string(sqlBytes)); execErr != nil {
		return false, fmt.Errorf("exec migration %s: %w", version, execErr)
	}
	if _, insErr := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); insErr != nil {
		return false, fmt.Errorf("record migration %s: %w", version, insErr)
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return false, fmt.Errorf("commit migration %s: %w", version, commitErr)
	}
	return true, nil
}
