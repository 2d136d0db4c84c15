package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/zenithflow/internal/bootstrap"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/service"
)

var errUsage = errors.New("usage")

// readyGrace is added to the recovery timeout when waiting for the first
// non-initializing status; the synchronizer forces ready on its own timer.
const readyGrace = time.Second

// runtime is one command's view of the wired client core.
type runtime struct {
	app   *bootstrap.App
	db    *sql.DB
	redis redis.UniversalClient
	cmd   *commandContext
}

type runtimeOptions struct {
	// WantDB connects Postgres for profile, schedule and settings access.
	WantDB bool
}

func openRuntime(cmdCtx *commandContext, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{cmd: cmdCtx}
	cfg := &cmdCtx.Config

	if opts.WantDB {
		db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		rt.db = db
		if cfg.Postgres.RunMigrationsOnStart {
			if err := bootstrap.RunMigrations(cmdCtx.Ctx, db, cmdCtx.Logger); err != nil {
				rt.Close()
				return nil, err
			}
		}
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	rt.redis = redisClient

	app, err := bootstrap.NewApp(bootstrap.AppDeps{
		Config: cfg,
		DB:     rt.db,
		Redis:  rt.redis,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.app = app

	if err := app.Start(cmdCtx.Ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// ready waits for the synchronizer to settle. A degraded configuration is
// returned as an error.
func (rt *runtime) ready() (domainauth.Snapshot, error) {
	wait := rt.cmd.Config.Sync.RecoveryTimeout + readyGrace
	ctx, cancel := context.WithTimeout(rt.cmd.Ctx, wait)
	defer cancel()
	return rt.app.Sync.WaitReady(ctx)
}

// awaitIdentity waits until the synchronizer has applied the change that
// matches want: a signed-in identity with id want, or no identity when want
// is empty, with the profile lookup settled.
func (rt *runtime) awaitIdentity(want string) domainauth.Snapshot {
	return rt.await(func(snap domainauth.Snapshot) bool {
		return snap.IdentityID() == want && snap.Status.IsReady() && !snap.ProfileLoading
	})
}

// await returns the first snapshot satisfying done, or the latest one once
// the recovery timeout elapses.
func (rt *runtime) await(done func(domainauth.Snapshot) bool) domainauth.Snapshot {
	updates, stop := rt.app.Sync.Watch()
	defer stop()

	timer := time.NewTimer(rt.cmd.Config.Sync.RecoveryTimeout)
	defer timer.Stop()

	last := rt.app.Sync.Snapshot()
	for {
		if done(last) {
			return last
		}
		select {
		case snap, ok := <-updates:
			if !ok {
				return last
			}
			last = snap
		case <-timer.C:
			return last
		case <-rt.cmd.Ctx.Done():
			return last
		}
	}
}

func (rt *runtime) Close() {
	logger := rt.cmd.Logger
	if rt.app != nil {
		if err := rt.app.Close(); err != nil {
			logger.Warn("app close failed", "error", err)
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			logger.Warn("db close failed", "error", err)
		}
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

// userMessage renders err for the terminal. Backend and gateway messages are
// shown verbatim; the rest print as-is.
func userMessage(err error) string {
	var pe *service.PersistenceError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	for _, sentinel := range []error{
		service.ErrUnauthenticated,
		service.ErrAlreadyBooked,
		service.ErrCapacityExceeded,
		service.ErrInvalidCredentials,
		service.ErrConfig,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
