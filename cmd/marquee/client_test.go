package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSearch_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/movies/search").
		ExpectGET().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "the matrix", r.URL.Query().Get("title"))
			respondJSON(t, w, http.StatusOK, SearchResponse{
				Movie:         &MovieResponse{ID: 603, Title: "The Matrix", ReleaseYear: 1999},
				SimilarMovies: []string{"The Matrix Reloaded (2003)"},
				Source:        "upstream",
			})
		}).
		Build()

	client := NewClient(srv.URL + "/")
	res, err := client.Search("the matrix")
	require.NoError(t, err)
	require.NotNil(t, res.Movie)
	assert.Equal(t, int64(603), res.Movie.ID)
	assert.Equal(t, []string{"The Matrix Reloaded (2003)"}, res.SimilarMovies)
}

func TestClientSearch_NoResult(t *testing.T) {
	srv := newMockServer(t).RespondJSON(map[string]any{}).Build()

	res, err := NewClient(srv.URL).Search("qwertyuiop")
	require.NoError(t, err)
	assert.Nil(t, res.Movie)
	assert.Empty(t, res.SimilarMovies)
}

func TestClientSearch_APIError(t *testing.T) {
	srv := newMockServer(t).
		RespondAPIError(http.StatusBadGateway, "UPSTREAM_ERROR", "tmdb search: status 503").
		Build()

	_, err := NewClient(srv.URL).Search("dune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "UPSTREAM_ERROR")
	assert.Contains(t, err.Error(), "tmdb search: status 503")
}

func TestClientStatus_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondJSON(StatusResponse{
			Status:          "ok",
			Version:         "1.0.0",
			Driver:          "sqlite",
			CachedEntries:   12,
			FreshnessWindow: "24h0m0s",
		}).
		Build()

	status, err := NewClient(srv.URL).Status()
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 12, status.CachedEntries)
}

func TestClientStatus_ServerError(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusInternalServerError, "internal server error").
		Build()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal server error")
}

func TestClientStatus_ConnectionError(t *testing.T) {
	srv := newMockServer(t).Build()
	srv.Close()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClientStatus_InvalidJSON(t *testing.T) {
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("not valid json"))
		}).
		Build()

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
}
