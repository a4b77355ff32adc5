// Package v1 implements the native REST API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/observability"
)

// Config holds API server configuration.
type Config struct {
	Version         string
	Driver          string
	FreshnessWindow time.Duration
	MetricsPath     string // empty disables the metrics endpoint
}

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	cfg  Config
	log  *slog.Logger
}

// New creates a new v1 API server with the given dependencies.
func New(deps ServerDeps, cfg Config) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, cfg: cfg, log: log}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Search
	mux.HandleFunc("GET /api/v1/movies/search", s.search)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	if s.cfg.MetricsPath != "" && s.deps.Metrics != nil {
		mux.Handle("GET "+s.cfg.MetricsPath, s.deps.Metrics.Handler())
	}
}

// Wrap applies request id, panic recovery and access logging to h.
func (s *Server) Wrap(h http.Handler) http.Handler {
	return requestID(recoverer(s.log, accessLog(s.log, s.deps.Metrics, h)))
}

// Handler returns a standalone handler serving the v1 routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.Wrap(mux)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// SearchStatus maps a search error to an HTTP status and error code.
func SearchStatus(err error) (int, string) {
	var uerr *catalog.UpstreamError
	var perr *catalog.PersistenceError
	switch {
	case errors.Is(err, catalog.ErrEmptyQuery):
		return http.StatusBadRequest, "INVALID_QUERY"
	// Upstream errors wrap the context error when the request times out.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.As(err, &uerr):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.As(err, &perr):
		return http.StatusInternalServerError, "STORE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{Title: r.URL.Query().Get("title")}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", validationMessage(err))
		return
	}

	ctx, span := observability.StartServerSpan(r.Context(), "GET /api/v1/movies/search",
		observability.AttrRequestID.String(RequestID(r.Context())),
	)
	defer span.End()

	res, err := s.deps.Searcher.Search(ctx, req.Title)
	if err != nil {
		status, code := SearchStatus(err)
		observability.SetSpanError(span, err)
		span.SetAttributes(observability.AttrStatusCode.Int(status))
		if status >= 500 {
			s.log.Error("search failed", "title", req.Title, "error", err, "request_id", RequestID(r.Context()))
		}
		msg := err.Error()
		if code == "INTERNAL" {
			msg = "internal server error"
		}
		writeError(w, status, code, msg)
		return
	}
	observability.SetSpanOK(span)

	writeJSON(w, http.StatusOK, searchToResponse(res))
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.deps.Store.Count(r.Context())
	if err != nil {
		s.log.Error("status count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:          "ok",
		Version:         s.cfg.Version,
		Driver:          s.cfg.Driver,
		CachedEntries:   count,
		FreshnessWindow: s.cfg.FreshnessWindow.String(),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.log.Warn("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}
