// Package catalog holds the movie catalog model and the cache-aside search
// service that combines the local store with the TMDB catalog.
package catalog

import (
	"strconv"
	"time"
)

// Entry is a single movie from the upstream catalog as persisted locally.
// TMDBID is the stable key; CreatedAt and LastUpdated are owned by the store.
type Entry struct {
	TMDBID           int64
	Title            string
	OriginalTitle    string
	Overview         string
	ReleaseDate      string // "2024-03-01" as sent by TMDB; may be empty or malformed
	PosterPath       string // "/abc123.jpg"
	BackdropPath     string
	Adult            bool
	GenreIDs         []int
	OriginalLanguage string
	Popularity       float64
	VoteAverage      float64
	VoteCount        int
	Video            bool
	CreatedAt        time.Time
	LastUpdated      time.Time
}

var releaseDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Released parses ReleaseDate. The second return value is false when the
// date is empty or cannot be parsed; callers treat that as an unknown date.
func (e *Entry) Released() (time.Time, bool) {
	if e.ReleaseDate == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, e.ReleaseDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Year returns the release year, or 0 when the release date is unknown.
func (e *Entry) Year() int {
	t, ok := e.Released()
	if !ok {
		return 0
	}
	return t.Year()
}

// Label formats an entry for the similar-movies list: "Dune (2021)".
// An unknown release date leaves the parentheses empty: "Dune ()".
func Label(e *Entry) string {
	year := ""
	if y := e.Year(); y > 0 {
		year = strconv.Itoa(y)
	}
	return e.Title + " (" + year + ")"
}

// Source records where the primary result of a search came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
)

// Result is the outcome of a search: the best single match plus labels for
// up to MaxRelated similar movies. Primary is nil when nothing matched.
type Result struct {
	Primary *Entry
	Related []string
	Source  Source
}
