package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Schema creates the poem tables if they are absent.
type Schema struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSchema creates a Schema over db.
func NewSchema(db *sql.DB, log *slog.Logger) *Schema {
	return &Schema{db: db, log: log}
}

// EnsureSchema applies pending migrations. "Already exists" outcomes from a
// concurrent loader creating the same tables are ignored.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations sub fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil && !IsAlreadyExists(err) {
		return mapConnError(fmt.Errorf("goose up: %w", err))
	}

	for _, r := range results {
		s.log.Info("schema migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}
