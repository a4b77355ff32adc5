package v1

//go:generate mockgen -destination=mocks/mock_v1.go -package=mocks github.com/vmunix/marquee/internal/api/v1 Searcher,StatusSource

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/metrics"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Searcher resolves title queries.
type Searcher interface {
	Search(ctx context.Context, query string) (*catalog.Result, error)
}

// StatusSource reports on the backing store for /status and /readyz.
type StatusSource interface {
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Searcher Searcher
	Store    StatusSource

	// Optional dependencies
	Metrics *metrics.Metrics // nil disables /metrics and request counting
	Logger  *slog.Logger
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Searcher == nil {
		return errors.Join(ErrMissingDependency, errors.New("searcher is required"))
	}
	if d.Store == nil {
		return errors.Join(ErrMissingDependency, errors.New("store is required"))
	}
	return nil
}
