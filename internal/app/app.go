package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/poetry-loader/internal/adapter/postgres"
	pgpoem "github.com/heartmarshall/poetry-loader/internal/adapter/postgres/poem"
	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite"
	litepoem "github.com/heartmarshall/poetry-loader/internal/adapter/sqlite/poem"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest/poems"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest/units"
	"github.com/heartmarshall/poetry-loader/internal/config"
	"github.com/heartmarshall/poetry-loader/internal/normalize"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitUnitsFailed = 1
	ExitAborted     = 2
)

// PoemRepo is what a store driver provides to the pipeline.
type PoemRepo interface {
	ingest.PoemStore
	ingest.StoreHealth
}

// Store bundles the adapters of one configured driver.
type Store struct {
	Poems  PoemRepo
	Tx     ingest.TxManager
	Schema ingest.SchemaManager
	close  func()
}

// Close releases the underlying connection pool or database handle.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{
			Poems:  pgpoem.New(pool),
			Tx:     postgres.NewTxManager(pool),
			Schema: postgres.NewSchema(pool, log),
			close:  pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Poems:  litepoem.New(db),
			Tx:     sqlite.NewTxManager(db),
			Schema: sqlite.NewSchema(db, log),
			close:  func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Ingest enumerates the units of cfg.Dir and runs the pipeline over them.
// The returned error is non-nil only when the run was aborted.
func Ingest(ctx context.Context, log *slog.Logger, store *Store, cfg ingest.Config) (ingest.Report, error) {
	ex, err := units.NewExclusion(cfg.Exclude)
	if err != nil {
		return ingest.Report{}, fmt.Errorf("exclusions: %w", err)
	}

	us, skipped, err := units.List(cfg.Dir, ex)
	if err != nil {
		return ingest.Report{}, err
	}
	for _, s := range skipped {
		log.Debug("file ignored", slog.String("unit", s.Name), slog.String("reason", s.Reason))
	}

	norm, err := normalize.New(cfg.NormalizeOptions())
	if err != nil {
		return ingest.Report{}, fmt.Errorf("normalizer: %w", err)
	}

	pipeline := ingest.NewPipeline(log, poems.NewLoader(norm), store.Poems, store.Tx, store.Schema, store.Poems, cfg)
	return pipeline.Run(ctx, us)
}

// ExitCode maps a run outcome to the process exit code.
func ExitCode(report ingest.Report, err error) int {
	switch {
	case err != nil:
		return ExitAborted
	case report.HasErrors():
		return ExitUnitsFailed
	default:
		return ExitOK
	}
}
