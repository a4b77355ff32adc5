// Package tmdb provides a client for The Movie Database API.
package tmdb

import "github.com/vmunix/marquee/internal/catalog"

// Movie is a movie as listed by TMDB search and similar endpoints.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"` // "2024-03-01"
	PosterPath       string  `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Video            bool    `json:"video"`
}

// page is the paginated envelope TMDB wraps list results in.
type page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Entry converts the wire movie to a catalog entry. Timestamps are left
// for the store to assign.
func (m *Movie) Entry() catalog.Entry {
	return catalog.Entry{
		TMDBID:           m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Adult:            m.Adult,
		GenreIDs:         m.GenreIDs,
		OriginalLanguage: m.OriginalLanguage,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Video:            m.Video,
	}
}

// PosterURL returns the full poster image URL.
// Size can be: w92, w154, w185, w342, w500, w780, original
func PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}
