package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"

	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/migrations"
)

const movieColumns = `tmdb_id, title, original_title, overview, release_date, poster_path, backdrop_path,
	adult, genre_ids, original_language, popularity, vote_average, vote_count, video, created_at, last_updated`

// foldFunc is a Unicode-aware lower(). The built-in one folds ASCII only,
// so "AMÉLIE" would not match "Amélie".
const foldFunc = "marquee_fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldValue); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFunc, v)
	}
}

// SQLite stores entries in a SQLite database. Timestamps are unix nanoseconds.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite wraps an already-migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// OpenSQLite opens (creating if needed) the database file and migrates it.
// A single connection serializes writers inside the process.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := migrations.Up(ctx, db, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewSQLite(db), nil
}

// mapSQLiteError converts SQLite errors to store error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "NOT NULL constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (*catalog.Entry, error) {
	var (
		e           catalog.Entry
		genreIDs    sql.NullString
		createdAt   int64
		lastUpdated int64
	)
	err := row.Scan(&e.TMDBID, &e.Title, &e.OriginalTitle, &e.Overview, &e.ReleaseDate, &e.PosterPath, &e.BackdropPath,
		&e.Adult, &genreIDs, &e.OriginalLanguage, &e.Popularity, &e.VoteAverage, &e.VoteCount, &e.Video,
		&createdAt, &lastUpdated)
	if err != nil {
		return nil, err
	}
	if genreIDs.Valid {
		if err := json.Unmarshal([]byte(genreIDs.String), &e.GenreIDs); err != nil {
			return nil, fmt.Errorf("decode genre_ids for %d: %w", e.TMDBID, err)
		}
	}
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	e.LastUpdated = time.Unix(0, lastUpdated).UTC()
	return &e, nil
}

func encodeGenreIDs(ids []int) (any, error) {
	if ids == nil {
		return nil, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// FindFresh returns the newest entry matching query whose last update is
// within maxAge. Stale matches are indistinguishable from no match.
func (s *SQLite) FindFresh(ctx context.Context, query string, maxAge time.Duration) (*catalog.Entry, error) {
	cutoff := s.now().Add(-maxAge).UnixNano()
	row := s.db.QueryRowContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies
		WHERE (instr(`+foldFunc+`(title), `+foldFunc+`(?1)) > 0 OR instr(`+foldFunc+`(original_title), `+foldFunc+`(?1)) > 0)
		  AND last_updated >= ?2
		ORDER BY last_updated DESC, tmdb_id ASC
		LIMIT 1`,
		query, cutoff,
	)
	e, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find fresh %q: %w", query, mapSQLiteError(err))
	}
	return e, nil
}

// Upsert writes the entry in one statement. On conflict the descriptive
// columns are replaced, created_at is kept and last_updated never moves back.
func (s *SQLite) Upsert(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	genreIDs, err := encodeGenreIDs(e.GenreIDs)
	if err != nil {
		return nil, fmt.Errorf("encode genre_ids for %d: %w", e.TMDBID, err)
	}
	now := s.now().UnixNano()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO movies (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET
			title = excluded.title,
			original_title = excluded.original_title,
			overview = excluded.overview,
			release_date = excluded.release_date,
			poster_path = excluded.poster_path,
			backdrop_path = excluded.backdrop_path,
			adult = excluded.adult,
			genre_ids = excluded.genre_ids,
			original_language = excluded.original_language,
			popularity = excluded.popularity,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count,
			video = excluded.video,
			last_updated = max(movies.last_updated, excluded.last_updated)
		RETURNING `+movieColumns,
		e.TMDBID, e.Title, e.OriginalTitle, e.Overview, e.ReleaseDate, e.PosterPath, e.BackdropPath,
		e.Adult, genreIDs, e.OriginalLanguage, e.Popularity, e.VoteAverage, e.VoteCount, e.Video,
		now, now,
	)
	saved, err := scanSQLiteEntry(row)
	if err != nil {
		return nil, fmt.Errorf("upsert movie %d: %w", e.TMDBID, mapSQLiteError(err))
	}
	return saved, nil
}

// Get retrieves an entry by TMDB ID.
func (s *SQLite) Get(ctx context.Context, tmdbID int64) (*catalog.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ?`, tmdbID)
	e, err := scanSQLiteEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", tmdbID, mapSQLiteError(err))
	}
	return e, nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// Prune removes entries whose last update is older than olderThan.
func (s *SQLite) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UnixNano()
	result, err := s.db.ExecContext(ctx, "DELETE FROM movies WHERE last_updated < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune movies: %w", err)
	}
	return result.RowsAffected()
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) setClock(now func() time.Time) { s.now = now }
