package library

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/reelview/internal/migrations"
	"github.com/vmunix/reelview/internal/movie"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(db), "apply schema")
	return db
}

func seed(t *testing.T, s *Store, records ...movie.Record) {
	t.Helper()
	for i := range records {
		_, err := s.AddMovie(&records[i])
		require.NoError(t, err)
	}
}
