package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/target/zenithflow/config"
	"github.com/target/zenithflow/internal/bootstrap"
	"github.com/target/zenithflow/internal/devseed"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

type seedOptions struct {
	Timeout     time.Duration
	Days        int
	DevRole     string
	AllowRemote bool
}

func parseMigrateFlags(args []string, out io.Writer) (migrateOptions, error) {
	fs := newFlagSet("migrate", out)
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := parseFlags(fs, args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, fmt.Errorf("%w: -timeout must be greater than zero", errUsage)
	}
	return opts, nil
}

func parseSeedFlags(args []string, out io.Writer) (seedOptions, error) {
	fs := newFlagSet("seed", out)
	opts := seedOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration for migrations and seeding")
	fs.IntVar(&opts.Days, "days", 14, "Days of classes to create starting today")
	fs.StringVar(&opts.DevRole, "dev-role", string(domainauth.RoleSuperadmin),
		"Role of the dev auth user's profile (mock auth mode only)")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Allow seeding a non-local database host")
	if err := parseFlags(fs, args); err != nil {
		return seedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return seedOptions{}, fmt.Errorf("%w: -timeout must be greater than zero", errUsage)
	}
	if opts.Days <= 0 {
		return seedOptions{}, fmt.Errorf("%w: -days must be greater than zero", errUsage)
	}
	if role := domainauth.Role(opts.DevRole); !role.Valid() {
		return seedOptions{}, fmt.Errorf("%w: -dev-role %q is not a known role", errUsage, opts.DevRole)
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
		return err
	}
	return writeln(cmdCtx.Out, "Migrations completed.")
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}
	if err := guardRemoteHost(cmdCtx.Config.Postgres.Host, opts.AllowRemote); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
		return err
	}

	seedOpts := devseed.Options{Days: opts.Days, Logger: cmdCtx.Logger}
	if cmdCtx.Config.Auth.Mode == config.AuthModeMock {
		seedOpts.DevUserID = cmdCtx.Config.Auth.DevAuth.UserID
		seedOpts.DevUserRole = domainauth.Role(opts.DevRole)
	}
	res, err := devseed.Run(ctx, db, seedOpts)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return writef(cmdCtx.Out,
		"Seeded %d organizations, %d locations, %d profiles, %d classes.\n",
		res.Organizations, res.Locations, res.Profiles, res.Classes,
	)
}

var errRemoteHost = errors.New("refusing to seed a remote database without -allow-remote")

// guardRemoteHost rejects hosts other than loopback and local container names.
func guardRemoteHost(host string, allow bool) error {
	if allow || isLocalHost(host) {
		return nil
	}
	return fmt.Errorf("%w (host %q)", errRemoteHost, host)
}

func isLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch h {
	case "", "localhost", "postgres", "db":
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return strings.HasSuffix(h, ".localhost")
}
