package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/marquee/internal/api/v1/mocks"
	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/metrics"
)

type testEnv struct {
	srv      *Server
	handler  http.Handler
	searcher *mocks.MockSearcher
	store    *mocks.MockStatusSource
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	env := &testEnv{
		searcher: mocks.NewMockSearcher(ctrl),
		store:    mocks.NewMockStatusSource(ctrl),
		metrics:  metrics.New("marquee"),
	}
	srv, err := New(ServerDeps{
		Searcher: env.searcher,
		Store:    env.store,
		Metrics:  env.metrics,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Config{
		Version:         "1.2.3",
		Driver:          "sqlite",
		FreshnessWindow: 24 * time.Hour,
		MetricsPath:     "/metrics",
	})
	require.NoError(t, err)
	env.srv = srv
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func duneResult() *catalog.Result {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &catalog.Result{
		Primary: &catalog.Entry{
			TMDBID:        438631,
			Title:         "Dune",
			OriginalTitle: "Dune",
			ReleaseDate:   "2021-09-15",
			PosterPath:    "/d5NXSklXo0qyIYkgV94XAgMIckC.jpg",
			GenreIDs:      []int{878, 12},
			VoteAverage:   7.8,
			CreatedAt:     now,
			LastUpdated:   now,
		},
		Related: []string{"Blade Runner 2049 (2017)", "Arrival (2016)"},
		Source:  catalog.SourceUpstream,
	}
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(ServerDeps{}, Config{})
	assert.ErrorIs(t, err, ErrMissingDependency)

	ctrl := gomock.NewController(t)
	_, err = New(ServerDeps{Searcher: mocks.NewMockSearcher(ctrl)}, Config{})
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.ErrorContains(t, err, "store is required")
}

func TestSearch_OK(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.EXPECT().Search(gomock.Any(), "Dune").Return(duneResult(), nil)

	w := env.get(t, "/api/v1/movies/search?title=Dune")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Movie)
	assert.Equal(t, int64(438631), resp.Movie.ID)
	assert.Equal(t, 2021, resp.Movie.ReleaseYear)
	assert.Equal(t, []int{878, 12}, resp.Movie.GenreIDs)
	assert.Equal(t, []string{"Blade Runner 2049 (2017)", "Arrival (2016)"}, resp.SimilarMovies)
	assert.Equal(t, "upstream", resp.Source)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	var movie map[string]any
	require.NoError(t, json.Unmarshal(raw["movie"], &movie))
	assert.Contains(t, movie, "poster_path")
	assert.Contains(t, movie, "original_title")
	assert.Contains(t, movie, "last_updated")
	assert.Contains(t, movie, "created_at")
}

func TestSearch_NoResult(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.EXPECT().Search(gomock.Any(), "Qwertyuiop").Return(&catalog.Result{Related: []string{}}, nil)

	w := env.get(t, "/api/v1/movies/search?title=Qwertyuiop")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestSearch_OmitsEmptySimilar(t *testing.T) {
	env := newTestEnv(t)
	res := duneResult()
	res.Related = []string{}
	env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return(res, nil)

	w := env.get(t, "/api/v1/movies/search?title=Dune")
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "movie")
	assert.NotContains(t, raw, "similarMovies")
}

func TestSearch_InvalidTitle(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing", "", "title is required"},
		{"empty", "?title=", "title is required"},
		{"blank", "?title=%20%20%09", "title is required"},
		{"too long", "?title=" + strings.Repeat("a", 501), "at most 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)

			w := env.get(t, "/api/v1/movies/search"+tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_QUERY", resp.Code)
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty query", catalog.ErrEmptyQuery, http.StatusBadRequest, "INVALID_QUERY"},
		{"upstream", &catalog.UpstreamError{Op: "search", StatusCode: 401, Err: errors.New("denied")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"persistence", &catalog.PersistenceError{TMDBID: 1, Err: errors.New("disk full")}, http.StatusInternalServerError, "STORE_ERROR"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"upstream deadline", &catalog.UpstreamError{Op: "search", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "TIMEOUT"},
		{"upstream canceled", &catalog.UpstreamError{Op: "similar", Err: fmt.Errorf("get: %w", context.Canceled)}, http.StatusGatewayTimeout, "TIMEOUT"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := env.get(t, "/api/v1/movies/search?title=Dune")
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == "INTERNAL" {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)
	env.store.EXPECT().Count(gomock.Any()).Return(42, nil)

	w := env.get(t, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "sqlite", resp.Driver)
	assert.Equal(t, 42, resp.CachedEntries)
	assert.Equal(t, "24h0m0s", resp.FreshnessWindow)
}

func TestGetStatus_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.store.EXPECT().Count(gomock.Any()).Return(0, errors.New("db closed"))

	w := env.get(t, "/api/v1/status")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	gomock.InOrder(
		env.store.EXPECT().Ping(gomock.Any()).Return(nil),
		env.store.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	w := env.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.get(t, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/healthz")
	generated := w.Header().Get("X-Request-Id")
	assert.Len(t, generated, 36, "expected a uuid, got %q", generated)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestRequestID_InContext(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) (*catalog.Result, error) {
		assert.Equal(t, "req-7", RequestID(ctx))
		return &catalog.Result{Related: []string{}}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies/search?title=x", nil)
	req.Header.Set("X-Request-Id", "req-7")
	env.handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) (*catalog.Result, error) {
		panic("nil map")
	})

	w := env.get(t, "/api/v1/movies/search?title=Dune")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL", resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	_ = env.get(t, "/healthz")
	_ = env.get(t, "/nope")

	w := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `marquee_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`)
	assert.Contains(t, body, `marquee_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv, err := New(ServerDeps{
		Searcher: mocks.NewMockSearcher(ctrl),
		Store:    mocks.NewMockStatusSource(ctrl),
	}, Config{MetricsPath: "/metrics"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchToResponse(t *testing.T) {
	assert.Equal(t, searchResponse{}, searchToResponse(nil))
	assert.Equal(t, searchResponse{}, searchToResponse(&catalog.Result{Related: []string{"x (2000)"}}))

	res := duneResult()
	res.Primary.GenreIDs = nil
	res.Primary.ReleaseDate = "unknown"
	resp := searchToResponse(res)
	require.NotNil(t, resp.Movie)
	assert.Equal(t, []int{}, resp.Movie.GenreIDs)
	assert.Zero(t, resp.Movie.ReleaseYear)
	assert.Len(t, resp.SimilarMovies, 2)
}
