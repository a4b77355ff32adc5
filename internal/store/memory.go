package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/marquee/internal/catalog"
)

// Memory is a process-local backend used by tests and the "memory" driver.
// Entries are copied in and out so callers can't mutate stored state.
type Memory struct {
	mu      sync.RWMutex
	entries map[int64]catalog.Entry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[int64]catalog.Entry),
		now:     time.Now,
	}
}

func cloneEntry(e catalog.Entry) *catalog.Entry {
	e.GenreIDs = slices.Clone(e.GenreIDs)
	return &e
}

// FindFresh returns the newest entry matching query updated within maxAge.
func (m *Memory) FindFresh(_ context.Context, query string, maxAge time.Duration) (*catalog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-maxAge)
	q := strings.ToLower(query)

	var best *catalog.Entry
	for _, e := range m.entries {
		if e.LastUpdated.Before(cutoff) {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.OriginalTitle), q) {
			continue
		}
		if best == nil || e.LastUpdated.After(best.LastUpdated) ||
			(e.LastUpdated.Equal(best.LastUpdated) && e.TMDBID < best.TMDBID) {
			best = cloneEntry(e)
		}
	}
	return best, nil
}

// Upsert inserts or updates the entry under a single lock.
func (m *Memory) Upsert(_ context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	row := *cloneEntry(*e)
	row.CreatedAt = now
	row.LastUpdated = now
	if existing, ok := m.entries[e.TMDBID]; ok {
		row.CreatedAt = existing.CreatedAt
		if existing.LastUpdated.After(now) {
			row.LastUpdated = existing.LastUpdated
		}
	}
	m.entries[e.TMDBID] = row
	return cloneEntry(row), nil
}

// Get retrieves an entry by TMDB ID.
func (m *Memory) Get(_ context.Context, tmdbID int64) (*catalog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[tmdbID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntry(e), nil
}

// Count returns the number of stored entries.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Prune removes entries not updated within olderThan.
func (m *Memory) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	var n int64
	for id, e := range m.entries {
		if e.LastUpdated.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) setClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
