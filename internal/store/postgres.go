package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/migrations"
)

// Postgres stores entries in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres wraps an existing pool. The schema must already be migrated.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: time.Now}
}

// OpenPostgres connects, verifies the connection and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	_, err = migrations.Up(ctx, db, migrations.Postgres)
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewPostgres(pool), nil
}

// mapPgError converts Postgres errors to store error types.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23502", "23514":
			return ErrConstraint
		}
	}
	return err
}

func scanPgEntry(row pgx.Row) (*catalog.Entry, error) {
	var e catalog.Entry
	err := row.Scan(&e.TMDBID, &e.Title, &e.OriginalTitle, &e.Overview, &e.ReleaseDate, &e.PosterPath, &e.BackdropPath,
		&e.Adult, &e.GenreIDs, &e.OriginalLanguage, &e.Popularity, &e.VoteAverage, &e.VoteCount, &e.Video,
		&e.CreatedAt, &e.LastUpdated)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.LastUpdated = e.LastUpdated.UTC()
	return &e, nil
}

// FindFresh returns the newest entry matching query updated within maxAge.
func (p *Postgres) FindFresh(ctx context.Context, query string, maxAge time.Duration) (*catalog.Entry, error) {
	const sql = `
		SELECT ` + movieColumns + `
		FROM movies
		WHERE (strpos(lower(title), lower($1)) > 0 OR strpos(lower(original_title), lower($1)) > 0)
		  AND last_updated >= $2
		ORDER BY last_updated DESC, tmdb_id ASC
		LIMIT 1`

	e, err := scanPgEntry(p.pool.QueryRow(ctx, sql, query, p.now().Add(-maxAge)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find fresh %q: %w", query, mapPgError(err))
	}
	return e, nil
}

// Upsert writes the entry in one statement; see SQLite.Upsert.
func (p *Postgres) Upsert(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}

	const sql = `
		INSERT INTO movies (` + movieColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			overview = EXCLUDED.overview,
			release_date = EXCLUDED.release_date,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			adult = EXCLUDED.adult,
			genre_ids = EXCLUDED.genre_ids,
			original_language = EXCLUDED.original_language,
			popularity = EXCLUDED.popularity,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			video = EXCLUDED.video,
			last_updated = GREATEST(movies.last_updated, EXCLUDED.last_updated)
		RETURNING ` + movieColumns

	row := p.pool.QueryRow(ctx, sql,
		e.TMDBID, e.Title, e.OriginalTitle, e.Overview, e.ReleaseDate, e.PosterPath, e.BackdropPath,
		e.Adult, e.GenreIDs, e.OriginalLanguage, e.Popularity, e.VoteAverage, e.VoteCount, e.Video,
		p.now().UTC(),
	)
	saved, err := scanPgEntry(row)
	if err != nil {
		return nil, fmt.Errorf("upsert movie %d: %w", e.TMDBID, mapPgError(err))
	}
	return saved, nil
}

// Get retrieves an entry by TMDB ID.
func (p *Postgres) Get(ctx context.Context, tmdbID int64) (*catalog.Entry, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = $1`, tmdbID)
	e, err := scanPgEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", tmdbID, mapPgError(err))
	}
	return e, nil
}

// Count returns the number of stored entries.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// Prune removes entries whose last update is older than olderThan.
func (p *Postgres) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM movies WHERE last_updated < $1", p.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune movies: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) setClock(now func() time.Time) { p.now = now }
