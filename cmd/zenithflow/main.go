package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/zenithflow/config"
	"github.com/target/zenithflow/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	if cfg.IsDev {
		logger = bootstrap.NewLogger(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			os.Exit(2) //nolint:forbidigo // flag errors are usage errors
		}
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		if err := writef(os.Stderr, "%s\n", userMessage(runErr)); err != nil {
			logger.Error("print error failed", "error", err)
		}
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"status": {
			name:        "status",
			description: "Restore the previous session and print identity, role and organization",
			run:         runStatus,
		},
		"login": {
			name:        "login",
			description: "Sign in with email and password",
			run:         runLogin,
		},
		"signup": {
			name:        "signup",
			description: "Create an account",
			run:         runSignUp,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and forget the stored session",
			run:         runLogout,
		},
		"menu": {
			name:        "menu",
			description: "Print the navigation entries allowed for the signed-in role",
			run:         runMenu,
		},
		"watch": {
			name:        "watch",
			description: "Print session changes as they happen until interrupted",
			run:         runWatch,
		},
		"schedule": {
			name:        "schedule",
			description: "List classes for a location by day or month",
			run:         runSchedule,
		},
		"book": {
			name:        "book",
			description: "Reserve a class for the signed-in user",
			run:         runBook,
		},
		"settings": {
			name:        "settings",
			description: "List locations or update the signed-in profile",
			run:         runSettings,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"seed": {
			name:        "seed",
			description: "Run database migrations and seed development data",
			run:         runSeed,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: zenithflow <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-12s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
