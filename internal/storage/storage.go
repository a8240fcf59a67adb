// Package storage is the embedded relational store backing the workflow
// engine: schema bootstrap via versioned embedded migrations, CRUD access to
// every domain entity, full-text event search with a substring fallback, and
// the append-only journal invariant enforced by database triggers.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrationFS embed.FS

// dbtx is satisfied by both *sql.DB and *sql.Tx, letting every query method
// below run either standalone or inside an engine-owned transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the database handle and exposes the full query surface. Engine
// operations call Store.WithTx to get a *Queries bound to one transaction, so
// one engine operation ends in exactly one COMMIT or ROLLBACK.
type Store struct {
	db *sql.DB
	*Queries
}

// Queries is the query surface, usable against either the pooled *sql.DB or
// a transaction.
type Queries struct {
	q dbtx
}

func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, Queries: &Queries{q: db}}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate applies every not-yet-applied file under migrations/, in name
// order, recording each as it commits. Idempotent: safe to call on every
// boot.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version TEXT PRIMARY KEY);`); err != nil {
		return err
	}
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, v := range names {
		var exists string
		err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = ?", v).Scan(&exists)
		if err == nil {
			continue
		} else if err != sql.ErrNoRows {
			return err
		}
		body, err := migrationFS.ReadFile("migrations/" + v)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, string(body)); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations(version) VALUES(?)", v); err != nil {
			return err
		}
	}
	return nil
}

// WithTx runs fn inside a single transaction, committing on nil error and
// rolling back otherwise. Every orchestration-engine operation uses exactly
// one of these, matching spec §4.1's "single transaction that ends with
// COMMIT or ROLLBACK" discipline.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func likePattern(s string) string {
	return "%" + strings.ReplaceAll(strings.ReplaceAll(s, "%", "\\%"), "_", "\\_") + "%"
}
