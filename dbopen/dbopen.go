// Package dbopen opens the service's SQLite database with production-safe
// pragmas applied via EXEC (driver-agnostic).
//
// Default pragmas:
//
//	foreign_keys = ON
//	journal_mode = WAL
//	busy_timeout = 10000
//	synchronous  = NORMAL
//
// Usage:
//
//	import _ "modernc.org/sqlite"
//	db, err := dbopen.Open("db/pdfsplitter.db", dbopen.WithMkdirAll())
//
// In tests:
//
//	db := dbopen.OpenMemory(t)
package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type config struct {
	busyTimeout int
	mkdirAll    bool
	schemas     []string
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithSchema queues inline SQL to execute after pragmas are applied.
func WithSchema(s string) Option { return func(c *config) { c.schemas = append(c.schemas, s) } }

// Open opens an SQLite database at path. The caller must blank-import the
// "sqlite" driver (modernc.org/sqlite) before calling Open.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := config{busyTimeout: 10_000}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: %s: %w", p, err)
		}
	}

	for _, s := range cfg.schemas {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: exec schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
// It sets MaxOpenConns(1) so every query hits the same in-memory database
// (each connection to ":memory:" creates a separate one) and registers
// t.Cleanup to close it.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

const maxRetries = 3

// IsBusy reports whether err indicates an SQLite BUSY condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RunTx executes fn inside a transaction with automatic retry on SQLITE_BUSY.
// It retries up to 3 times with 100/200/300 ms backoff.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var lastErr error
	for i := range maxRetries {
		lastErr = runOnce(ctx, db, fn)
		if lastErr == nil {
			return nil
		}
		if !IsBusy(lastErr) {
			return lastErr
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return fmt.Errorf("dbopen: context cancelled during retry: %w", err)
		}
	}
	return lastErr
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}

// Exec executes a statement with automatic retry on SQLITE_BUSY.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var lastErr error
	for i := range maxRetries {
		result, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsBusy(err) {
			return nil, err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return nil, fmt.Errorf("dbopen: context cancelled during retry: %w", err)
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
