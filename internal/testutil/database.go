// Package testutil provides shared test helpers: an in-memory database and
// builders for scored items.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/intel-sieve/internal/storage"
)

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
