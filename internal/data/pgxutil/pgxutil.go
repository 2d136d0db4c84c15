// Package pgxutil bridges database/sql pools to native pgx connections so
// repositories can use pgx row collection while the app keeps one *sql.DB.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// TxConfig groups the options and body of a WithPgxTx call.
type TxConfig struct {
	Opts *sql.TxOptions
	Fn   func(pgx.Tx) error
}

// TxOptions maps database/sql transaction options onto pgx. Nil means server defaults.
func TxOptions(opts *sql.TxOptions) pgx.TxOptions {
	if opts == nil {
		return pgx.TxOptions{}
	}
	out := pgx.TxOptions{IsoLevel: isoLevel(opts.Isolation), AccessMode: pgx.ReadWrite}
	if opts.ReadOnly {
		out.AccessMode = pgx.ReadOnly
	}
	return out
}

func isoLevel(level sql.IsolationLevel) pgx.TxIsoLevel {
	switch level {
	case sql.LevelSerializable, sql.LevelLinearizable:
		return pgx.Serializable
	case sql.LevelRepeatableRead, sql.LevelSnapshot:
		return pgx.RepeatableRead
	case sql.LevelReadCommitted, sql.LevelWriteCommitted:
		return pgx.ReadCommitted
	case sql.LevelReadUncommitted:
		return pgx.ReadUncommitted
	default:
		return ""
	}
}

// WithPgxConn pins one pooled connection and hands its underlying *pgx.Conn to fn.
func WithPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	if db == nil {
		return errors.New("pgxutil: nil database")
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		return fn(std.Conn())
	})
}

// WithPgxTx runs cfg.Fn inside a pgx transaction, committing only when it returns nil.
func WithPgxTx(ctx context.Context, db *sql.DB, cfg TxConfig) error {
	return WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		tx, err := conn.BeginTx(ctx, TxOptions(cfg.Opts))
		if err != nil {
			return fmt.Errorf("begin pgx tx: %w", err)
		}
		// Rollback after commit returns ErrTxClosed.
		defer func() { _ = tx.Rollback(ctx) }()

		if err := cfg.Fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit pgx tx: %w", err)
		}
		return nil
	})
}
