package catalog

//go:generate mockgen -destination=mocks/mock_catalog.go -package=mocks github.com/vmunix/marquee/internal/catalog Store,Upstream

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/observability"
)

const (
	// DefaultFreshnessWindow is how long a stored entry may answer searches
	// before the upstream catalog is consulted again.
	DefaultFreshnessWindow = 24 * time.Hour

	// MaxRelated caps the similar-movies list.
	MaxRelated = 5
)

// Store persists catalog entries keyed by TMDB ID.
type Store interface {
	// FindFresh returns the most recently updated entry whose title or
	// original title contains query (case-insensitive) and whose LastUpdated
	// is within maxAge. Returns nil, nil when nothing qualifies.
	FindFresh(ctx context.Context, query string, maxAge time.Duration) (*Entry, error)

	// Upsert inserts the entry or overwrites the descriptive fields of the
	// existing row with the same TMDBID, and returns the stored row.
	Upsert(ctx context.Context, e *Entry) (*Entry, error)
}

// Upstream is the external catalog.
type Upstream interface {
	SearchByTitle(ctx context.Context, query string) ([]Entry, error)
	RelatedTo(ctx context.Context, tmdbID int64) ([]Entry, error)
}

// Config tunes the search service.
type Config struct {
	FreshnessWindow time.Duration
	RelatedLimit    int // clamped to 1..MaxRelated
}

// Service answers title searches from the store when fresh, falling through
// to the upstream catalog and writing results back.
type Service struct {
	store    Store
	upstream Upstream
	cfg      Config
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewService creates a search service.
func NewService(store Store, upstream Upstream, cfg Config, log *slog.Logger) *Service {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = DefaultFreshnessWindow
	}
	if cfg.RelatedLimit <= 0 || cfg.RelatedLimit > MaxRelated {
		cfg.RelatedLimit = MaxRelated
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		upstream: upstream,
		cfg:      cfg,
		log:      log,
	}
}

// SetMetrics enables Prometheus recording.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Search resolves a title query to a primary entry plus similar-movie labels.
//
// A fresh store hit skips the upstream search but similar movies are always
// fetched live. When the upstream search is empty the result has no primary
// and nothing is written. Upstream and write failures are returned as-is
// (*UpstreamError, *PersistenceError); store read failures count as a miss.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	q := NormalizeQuery(query)
	if q == "" {
		s.log.Debug("rejected empty query")
		return nil, ErrEmptyQuery
	}

	ctx, span := observability.StartSpan(ctx, "catalog.search", observability.AttrQuery.String(q))
	defer span.End()
	start := time.Now()

	primary, source, err := s.primary(ctx, q)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}
	if primary == nil {
		s.metrics.ObserveSearch("none", time.Since(start))
		observability.SetSpanOK(span)
		return &Result{Related: []string{}}, nil
	}
	span.SetAttributes(
		observability.AttrCacheHit.Bool(source == SourceCache),
		observability.AttrTMDBID.Int64(primary.TMDBID),
	)

	related, err := s.related(ctx, primary.TMDBID)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(observability.AttrRelated.Int(len(related)))
	observability.SetSpanOK(span)

	s.metrics.ObserveSearch(string(source), time.Since(start))
	s.log.Info("search complete",
		"query", q,
		"source", source,
		"tmdb_id", primary.TMDBID,
		"title", primary.Title,
		"related", len(related),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Primary: primary, Related: related, Source: source}, nil
}

func (s *Service) primary(ctx context.Context, q string) (*Entry, Source, error) {
	cached, err := s.store.FindFresh(ctx, q, s.cfg.FreshnessWindow)
	switch {
	case err != nil:
		s.log.Warn("cache lookup failed, treating as miss", "query", q, "error", err)
		s.metrics.CacheLookup(metrics.LookupError)
	case cached != nil:
		s.log.Debug("cache hit", "query", q, "tmdb_id", cached.TMDBID, "last_updated", cached.LastUpdated)
		s.metrics.CacheLookup(metrics.LookupHit)
		return cached, SourceCache, nil
	default:
		s.metrics.CacheLookup(metrics.LookupMiss)
	}

	results, err := s.upstream.SearchByTitle(ctx, q)
	if err != nil {
		s.log.Error("upstream search failed", "query", q, "error", err)
		return nil, "", err
	}
	if len(results) == 0 {
		s.log.Info("no upstream results", "query", q)
		return nil, "", nil
	}

	saved, err := s.persist(ctx, &results[0], metrics.RolePrimary)
	if err != nil {
		return nil, "", err
	}
	s.log.Debug("fetched and stored", "query", q, "tmdb_id", saved.TMDBID, "candidates", len(results))
	return saved, SourceUpstream, nil
}

func (s *Service) related(ctx context.Context, tmdbID int64) ([]string, error) {
	similar, err := s.upstream.RelatedTo(ctx, tmdbID)
	if err != nil {
		s.log.Error("similar movies lookup failed", "tmdb_id", tmdbID, "error", err)
		return nil, err
	}
	if len(similar) == 0 {
		s.log.Warn("no similar movies", "tmdb_id", tmdbID)
		return []string{}, nil
	}

	n := min(len(similar), s.cfg.RelatedLimit)
	labels := make([]string, 0, n)
	for i := range similar[:n] {
		saved, err := s.persist(ctx, &similar[i], metrics.RoleRelated)
		if err != nil {
			return nil, err
		}
		labels = append(labels, Label(saved))
	}
	return labels, nil
}

func (s *Service) persist(ctx context.Context, e *Entry, role string) (*Entry, error) {
	saved, err := s.store.Upsert(ctx, e)
	if err != nil {
		s.log.Error("persist failed", "tmdb_id", e.TMDBID, "role", role, "error", err)
		return nil, &PersistenceError{TMDBID: e.TMDBID, Err: err}
	}
	s.metrics.StoreUpsert(role)
	return saved, nil
}
