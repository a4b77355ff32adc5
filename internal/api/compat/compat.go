// Package compat serves the legacy movie search route and response shape
// used by existing clients of the pre-v1 API.
package compat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	v1 "github.com/vmunix/marquee/internal/api/v1"
	"github.com/vmunix/marquee/internal/catalog"
)

// Searcher resolves title queries.
type Searcher interface {
	Search(ctx context.Context, query string) (*catalog.Result, error)
}

// Server provides the legacy API.
type Server struct {
	searcher Searcher
	log      *slog.Logger
}

// New creates a new compatibility server.
func New(searcher Searcher, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{searcher: searcher, log: log}
}

// RegisterRoutes registers compatibility API routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/movie/search", s.searchMovies)
	mux.HandleFunc("GET /api/Movie/search", s.searchMovies)
}

// legacyMovie keeps TMDB field names for catalog data and camelCase for
// the bookkeeping timestamps.
type legacyMovie struct {
	ID               int64     `json:"id"`
	Adult            bool      `json:"adult"`
	BackdropPath     *string   `json:"backdrop_path"`
	GenreIDs         []int     `json:"genre_ids"`
	OriginalLanguage *string   `json:"original_language"`
	OriginalTitle    *string   `json:"original_title"`
	Overview         *string   `json:"overview"`
	Popularity       float64   `json:"popularity"`
	PosterPath       *string   `json:"poster_path"`
	ReleaseDate      *string   `json:"release_date"`
	Title            string    `json:"title"`
	Video            bool      `json:"video"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	LastUpdated      time.Time `json:"lastUpdated"`
	CreatedAt        time.Time `json:"createdAt"`
}

// legacyResponse always carries both keys; absent values are null.
type legacyResponse struct {
	Movie         *legacyMovie `json:"movie"`
	SimilarMovies []string     `json:"similarMovies"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toLegacy(res *catalog.Result) legacyResponse {
	var resp legacyResponse
	if res == nil || res.Primary == nil {
		return resp
	}
	e := res.Primary
	resp.Movie = &legacyMovie{
		ID:               e.TMDBID,
		Adult:            e.Adult,
		BackdropPath:     nullable(e.BackdropPath),
		GenreIDs:         e.GenreIDs,
		OriginalLanguage: nullable(e.OriginalLanguage),
		OriginalTitle:    nullable(e.OriginalTitle),
		Overview:         nullable(e.Overview),
		Popularity:       e.Popularity,
		PosterPath:       nullable(e.PosterPath),
		ReleaseDate:      nullable(e.ReleaseDate),
		Title:            e.Title,
		Video:            e.Video,
		VoteAverage:      e.VoteAverage,
		VoteCount:        e.VoteCount,
		LastUpdated:      e.LastUpdated,
		CreatedAt:        e.CreatedAt,
	}
	if len(res.Related) > 0 {
		resp.SimilarMovies = res.Related
	}
	return resp
}

func (s *Server) searchMovies(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		http.Error(w, "Search title cannot be empty", http.StatusBadRequest)
		return
	}

	res, err := s.searcher.Search(r.Context(), title)
	if err != nil {
		status, _ := v1.SearchStatus(err)
		s.log.Error("legacy search failed", "title", title, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toLegacy(res))
}
