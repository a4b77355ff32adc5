// Package store persists catalog entries. SQLite, Postgres and in-memory
// backends all satisfy catalog.Store with an atomic insert-or-update.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmunix/marquee/internal/catalog"
)

var (
	// ErrNotFound indicates the requested entry doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a check or not-null constraint violation.
	ErrConstraint = errors.New("constraint violation")
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Backend is a catalog store plus the maintenance operations used by the
// daemon and CLI.
type Backend interface {
	catalog.Store

	// Get returns the entry with the given TMDB ID or ErrNotFound.
	Get(ctx context.Context, tmdbID int64) (*catalog.Entry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
	// Prune deletes entries not updated within olderThan and reports how many.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open creates the configured backend and applies migrations.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		s, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		p, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func validateEntry(e *catalog.Entry) error {
	if e == nil {
		return fmt.Errorf("nil entry: %w", ErrConstraint)
	}
	if e.TMDBID <= 0 {
		return fmt.Errorf("tmdb id %d: %w", e.TMDBID, ErrConstraint)
	}
	return nil
}
