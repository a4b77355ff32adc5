package v1

import (
	"time"

	"github.com/vmunix/marquee/internal/catalog"
)

// searchRequest is the query string of GET /movies/search.
type searchRequest struct {
	Title string `validate:"notblank,max=500"`
}

// movieResponse is the API representation of a catalog entry. Field names
// follow TMDB's.
type movieResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title"`
	Overview         string    `json:"overview"`
	ReleaseDate      string    `json:"release_date"`
	ReleaseYear      int       `json:"release_year,omitempty"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	Adult            bool      `json:"adult"`
	GenreIDs         []int     `json:"genre_ids"`
	OriginalLanguage string    `json:"original_language"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Video            bool      `json:"video"`
	CreatedAt        time.Time `json:"created_at"`
	LastUpdated      time.Time `json:"last_updated"`
}

// searchResponse is the response for GET /movies/search.
type searchResponse struct {
	Movie         *movieResponse `json:"movie,omitempty"`
	SimilarMovies []string       `json:"similarMovies,omitempty"`
	Source        string         `json:"source,omitempty"`
}

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Driver          string `json:"driver"`
	CachedEntries   int    `json:"cached_entries"`
	FreshnessWindow string `json:"freshness_window"`
}

func entryToResponse(e *catalog.Entry) *movieResponse {
	genres := e.GenreIDs
	if genres == nil {
		genres = []int{}
	}
	return &movieResponse{
		ID:               e.TMDBID,
		Title:            e.Title,
		OriginalTitle:    e.OriginalTitle,
		Overview:         e.Overview,
		ReleaseDate:      e.ReleaseDate,
		ReleaseYear:      e.Year(),
		PosterPath:       e.PosterPath,
		BackdropPath:     e.BackdropPath,
		Adult:            e.Adult,
		GenreIDs:         genres,
		OriginalLanguage: e.OriginalLanguage,
		Popularity:       e.Popularity,
		VoteAverage:      e.VoteAverage,
		VoteCount:        e.VoteCount,
		Video:            e.Video,
		CreatedAt:        e.CreatedAt,
		LastUpdated:      e.LastUpdated,
	}
}

// searchToResponse composes the search payload. An absent primary omits
// "movie"; an empty related list omits "similarMovies".
func searchToResponse(res *catalog.Result) searchResponse {
	var resp searchResponse
	if res == nil || res.Primary == nil {
		return resp
	}
	resp.Movie = entryToResponse(res.Primary)
	resp.Source = string(res.Source)
	if len(res.Related) > 0 {
		resp.SimilarMovies = res.Related
	}
	return resp
}
