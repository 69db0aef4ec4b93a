package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrations returns the embedded goose migrations for the poem schema.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres: migrations sub fs: %v", err))
	}
	return sub
}

// Schema creates the poem tables if they are absent.
type Schema struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewSchema creates a Schema over pool.
func NewSchema(pool *pgxpool.Pool, log *slog.Logger) *Schema {
	return &Schema{pool: pool, log: log}
}

// EnsureSchema applies pending migrations. A session-level advisory lock keeps
// concurrent loaders from racing on the same database.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("create session locker: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, Migrations(),
		goose.WithSessionLocker(locker),
	)
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
