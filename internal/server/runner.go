// Package server runs the HTTP listener and its background jobs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Pruner deletes entries that have not been refreshed within olderThan.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config for the runner.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	// PruneInterval enables periodic pruning when > 0.
	PruneInterval  time.Duration
	PruneOlderThan time.Duration
}

// Runner manages the HTTP server and optional prune loop.
type Runner struct {
	handler http.Handler
	pruner  Pruner
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a new runner. pruner may be nil.
func NewRunner(handler http.Handler, pruner Pruner, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		handler: handler,
		pruner:  pruner,
		config:  cfg,
		logger:  logger,
	}
}

// Run listens on the configured address and serves until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
// A clean shutdown returns nil.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		r.logger.Info("http server stopped")
		return nil
	})

	if r.pruner != nil && r.config.PruneInterval > 0 {
		g.Go(func() error {
			r.runPruner(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) runPruner(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	r.logger.Info("pruner started", "interval", r.config.PruneInterval, "older_than", r.config.PruneOlderThan)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("pruner stopped")
			return
		case <-ticker.C:
			n, err := r.pruner.Prune(ctx, r.config.PruneOlderThan)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Error("prune failed", "error", err)
				}
				continue
			}
			if n > 0 {
				r.logger.Info("pruned stale entries", "deleted", n)
			}
		}
	}
}
