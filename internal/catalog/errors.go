package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when the search text is empty or whitespace.
var ErrEmptyQuery = errors.New("search query is empty")

// UpstreamError reports a failed call to the TMDB catalog: transport
// failure, non-2xx status, or an undecodable body.
type UpstreamError struct {
	Op         string // "search" or "similar"
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write of a catalog entry.
type PersistenceError struct {
	TMDBID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist movie %d: %v", e.TMDBID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
