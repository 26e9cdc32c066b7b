// Package storagetest provides a migrated throwaway database for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/storage"
)

// NewDB opens a fresh, fully migrated SQLite database under t.TempDir().
// The database is closed when the test ends.
func NewDB(t testing.TB) *storage.DB {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, storage.RunMigrations(context.Background(), db), "migrating test database")

	return db
}
