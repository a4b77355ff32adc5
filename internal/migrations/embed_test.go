package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestUp_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	version, err := Up(context.Background(), db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Idempotent
	version, err = Up(context.Background(), db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&n))
	assert.Zero(t, n)
}

func TestUp_UnknownDialect(t *testing.T) {
	_, err := Up(context.Background(), nil, Dialect("mysql"))
	assert.ErrorContains(t, err, "unsupported dialect")
}
