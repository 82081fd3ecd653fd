// Package testutil holds database harnesses and fixtures shared by
// repository, service and end-to-end tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	sqlitemigrations "hotelbooking/internal/migrations/sqlite"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/logger"
)

// NewSQLite opens a migrated database in a temp directory, closed when the
// test ends.
func NewSQLite(t *testing.T) *sqlite.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "hotel.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sqlitemigrations.Migrate(ctx, db, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db
}
