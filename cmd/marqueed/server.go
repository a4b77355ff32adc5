package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vmunix/marquee/internal/api/compat"
	v1 "github.com/vmunix/marquee/internal/api/v1"
	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/config"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/observability"
	"github.com/vmunix/marquee/internal/server"
	"github.com/vmunix/marquee/internal/store"
	"github.com/vmunix/marquee/internal/tmdb"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, cfg config.ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func runServer(configPath string) error {
	src, err := config.Locate(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(src.Path)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.Server)
	slog.SetDefault(logger)
	logger.Info("config loaded", "path", src.Path, "origin", src.Origin)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, logger)
}

// run wires every component from cfg and serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// === Tracing ===
	if err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		SampleRate:  cfg.Tracing.SampleRate,
	}); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// === Store ===
	st, err := store.Open(ctx, store.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// === Metrics (optional) ===
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("marquee")
	}

	// === Upstream ===
	client, err := tmdb.NewClient(cfg.TMDB.AccessToken,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithLogger(logger.With("component", "tmdb")),
		tmdb.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("tmdb client: %w", err)
	}

	// === Services ===
	svc := catalog.NewService(st, client, catalog.Config{
		FreshnessWindow: cfg.Cache.FreshnessWindow,
		RelatedLimit:    cfg.Cache.RelatedLimit,
	}, logger.With("component", "catalog"))
	svc.SetMetrics(m)

	// === HTTP Setup ===
	handler, err := newHandler(svc, st, m, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("server starting",
		"addr", cfg.Server.Addr(),
		"driver", cfg.Database.Driver,
		"freshness_window", cfg.Cache.FreshnessWindow,
		"metrics", m != nil,
		"tracing", cfg.Tracing.Enabled,
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(handler, st, server.Config{
		Addr:           cfg.Server.Addr(),
		PruneInterval:  cfg.Cache.PruneInterval,
		PruneOlderThan: cfg.Cache.Retention,
	}, logger.With("component", "server"))
	if err := runner.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newHandler mounts the v1 and compat routes behind the shared middleware.
func newHandler(svc v1.Searcher, st v1.StatusSource, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	apiV1, err := v1.New(v1.ServerDeps{
		Searcher: svc,
		Store:    st,
		Metrics:  m,
		Logger:   logger.With("component", "api"),
	}, v1.Config{
		Version:         version,
		Driver:          cfg.Database.Driver,
		FreshnessWindow: cfg.Cache.FreshnessWindow,
		MetricsPath:     metricsPath,
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	mux := http.NewServeMux()
	apiV1.RegisterRoutes(mux)
	compat.New(svc, logger.With("component", "compat")).RegisterRoutes(mux)

	return apiV1.Wrap(mux), nil
}
