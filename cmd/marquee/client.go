package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps HTTP calls to the marquee daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new marquee API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError is the daemon's error body.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("server error %d (%s): %s", resp.StatusCode, e.Code, e.Error)
		}
		return fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// API response types (mirror server types)

type MovieResponse struct {
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

type SearchResponse struct {
	Movie         *MovieResponse `json:"movie,omitempty"`
	SimilarMovies []string       `json:"similarMovies,omitempty"`
	Source        string         `json:"source,omitempty"`
}

type StatusResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Driver          string `json:"driver"`
	CachedEntries   int    `json:"cached_entries"`
	FreshnessWindow string `json:"freshness_window"`
}

// Search looks up a movie by title.
func (c *Client) Search(title string) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get("/api/v1/movies/search?title="+url.QueryEscape(title), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
