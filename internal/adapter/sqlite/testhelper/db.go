// Package testhelper opens throwaway SQLite databases with the poem schema applied.
package testhelper

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite"
)

// SetupTestDB opens a private in-memory database, ensures the poem schema and
// closes it via t.Cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("testhelper: open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sqlite.NewSchema(db, slog.New(slog.NewTextHandler(io.Discard, nil))).EnsureSchema(ctx); err != nil {
		t.Fatalf("testhelper: ensure schema: %v", err)
	}
	return db
}
