package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/poetry-loader/internal/app/ingest/poems"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest/units"
	"github.com/heartmarshall/poetry-loader/internal/domain"
	"github.com/heartmarshall/poetry-loader/pkg/ctxutil"
)

// UnitLoader reads one unit into normalized records.
// Implemented by poems.Loader.
type UnitLoader interface {
	Load(unit units.Unit) ([]domain.PoemRecord, error)
}

// SchemaManager creates the poem tables if they are absent.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

// UnitResult holds the outcome of a single unit.
type UnitResult struct {
	Unit         string
	Records      int
	TagsCreated  int
	LinksCreated int
	DryRun       bool
	Duration     time.Duration
	Err          error
}

// Report summarizes a run.
type Report struct {
	Units    []UnitResult
	Totals   domain.StoreCounts
	Duration time.Duration
}

// HasErrors returns true if any unit failed.
func (r Report) HasErrors() bool {
	for _, u := range r.Units {
		if u.Err != nil {
			return true
		}
	}
	return false
}

// Failed returns the results of failed units in processing order.
func (r Report) Failed() []UnitResult {
	var failed []UnitResult
	for _, u := range r.Units {
		if u.Err != nil {
			failed = append(failed, u)
		}
	}
	return failed
}

// Records returns the number of records written (or parsed, in dry-run mode)
// by units that succeeded.
func (r Report) Records() int {
	total := 0
	for _, u := range r.Units {
		if u.Err == nil {
			total += u.Records
		}
	}
	return total
}

// Pipeline drives a run: it loads every unit and applies its records in one
// transaction per unit, isolating unit failures from each other.
type Pipeline struct {
	log    *slog.Logger
	loader UnitLoader
	engine *Engine
	txm    TxManager
	schema SchemaManager
	health StoreHealth
	cfg    Config
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, loader UnitLoader, store PoemStore, txm TxManager, schema SchemaManager, health StoreHealth, cfg Config) *Pipeline {
	return &Pipeline{
		log:    log,
		loader: loader,
		engine: NewEngine(store),
		txm:    txm,
		schema: schema,
		health: health,
		cfg:    cfg,
	}
}

// Run ingests units in order. Unit-scoped failures are recorded in the report
// and the run continues; a run-fatal error stops the run and is returned along
// with the partial report.
func (p *Pipeline) Run(ctx context.Context, us []units.Unit) (Report, error) {
	start := time.Now()
	log := p.log
	if id, ok := ctxutil.RunIDFromCtx(ctx); ok {
		log = log.With(slog.String("run_id", id.String()))
	}

	// Step 1: Ensure schema.
	if !p.cfg.DryRun {
		if err := p.schema.EnsureSchema(ctx); err != nil {
			return Report{}, fmt.Errorf("ensure schema: %w", err)
		}
	}

	// Step 2: Process units.
	log.Info("starting ingestion",
		slog.Int("units", len(us)),
		slog.Int("workers", p.cfg.Workers),
		slog.Bool("dry_run", p.cfg.DryRun),
	)

	var (
		results []UnitResult
		err     error
	)
	if p.cfg.Workers > 1 {
		results, err = p.runConcurrent(ctx, log, us)
	} else {
		results, err = p.runSequential(ctx, log, us)
	}

	report := Report{Units: results}

	// Step 3: Summary.
	if err == nil && !p.cfg.DryRun {
		totals, cerr := p.health.Counts(ctx)
		if cerr != nil {
			log.Warn("could not count store rows", slog.String("error", cerr.Error()))
		} else {
			report.Totals = totals
		}
	}
	report.Duration = time.Since(start)

	if err != nil {
		log.Error("ingestion aborted",
			slog.String("error", err.Error()),
			slog.Int("units_done", len(results)),
			slog.Duration("duration", report.Duration),
		)
		return report, err
	}

	log.Info("ingestion completed",
		slog.Int("units", len(results)),
		slog.Int("failed", len(report.Failed())),
		slog.Int("records", report.Records()),
		slog.Int("poems_total", report.Totals.Poems),
		slog.Int("tags_total", report.Totals.Tags),
		slog.Int("poem_tags_total", report.Totals.PoemTags),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

func (p *Pipeline) runSequential(ctx context.Context, log *slog.Logger, us []units.Unit) ([]UnitResult, error) {
	results := make([]UnitResult, 0, len(us))
	for _, u := range us {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("run cancelled: %w", err)
		}

		res, err := p.processUnit(ctx, log, u)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// runConcurrent processes units with a bounded worker group. Each unit still
// gets its own transaction; a fatal error cancels the remaining units.
func (p *Pipeline) runConcurrent(ctx context.Context, log *slog.Logger, us []units.Unit) ([]UnitResult, error) {
	results := make([]UnitResult, len(us))
	done := make([]bool, len(us))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, u := range us {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			res, err := p.processUnit(gctx, log, u)
			results[i] = res
			done[i] = true
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("run cancelled: %w", cerr)
		}
	}

	finished := make([]UnitResult, 0, len(us))
	for i := range us {
		if done[i] {
			finished = append(finished, results[i])
		}
	}
	return finished, err
}

// processUnit loads and applies a single unit. The returned error is non-nil
// only for run-fatal failures; unit-scoped failures are carried in UnitResult.Err.
func (p *Pipeline) processUnit(ctx context.Context, log *slog.Logger, u units.Unit) (UnitResult, error) {
	start := time.Now()
	ctx = ctxutil.WithUnit(ctx, u.Name)
	log = log.With(slog.String("unit", u.Name))
	res := UnitResult{Unit: u.Name, DryRun: p.cfg.DryRun}

	records, err := p.loader.Load(u)
	if err != nil {
		res.Duration = time.Since(start)
		res.Err = err
		if poems.IsMalformed(err) {
			log.Warn("unit skipped", slog.String("error", err.Error()))
			return res, nil
		}
		return res, fmt.Errorf("load %s: %w", u.Name, err)
	}
	res.Records = len(records)

	if p.cfg.DryRun {
		res.Duration = time.Since(start)
		log.Info("unit parsed", slog.Int("records", res.Records))
		return res, nil
	}

	created, attempts, err := p.applyUnit(ctx, log, records)
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = err
		if fatal := p.classifyWriteError(ctx, err); fatal != nil {
			return res, fmt.Errorf("unit %s: %w", u.Name, fatal)
		}
		log.Warn("unit rolled back",
			slog.String("error", err.Error()),
			slog.Int("records", res.Records),
			slog.Int("attempts", attempts),
			slog.Duration("duration", res.Duration),
		)
		return res, nil
	}

	res.TagsCreated = created.TagsCreated
	res.LinksCreated = created.LinksCreated
	log.Info("unit committed",
		slog.Int("records", res.Records),
		slog.Int("attempts", attempts),
		slog.Int("tags_created", res.TagsCreated),
		slog.Int("links_created", res.LinksCreated),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// applyUnit writes all records of a unit in one transaction. A transaction the
// store aborted with domain.ErrTransient is re-run from the start, up to
// cfg.TxRetries more times with exponential backoff.
func (p *Pipeline) applyUnit(ctx context.Context, log *slog.Logger, records []domain.PoemRecord) (UpsertResult, int, error) {
	var (
		created  UpsertResult
		attempts int
	)

	op := func() error {
		attempts++
		created = UpsertResult{}
		err := p.txm.RunInTx(ctx, func(txCtx context.Context) error {
			for _, rec := range records {
				r, err := p.engine.Upsert(txCtx, rec)
				if err != nil {
					return err
				}
				created.TagsCreated += r.TagsCreated
				created.LinksCreated += r.LinksCreated
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTransient) {
			return backoff.Permanent(err)
		}
		log.Warn("unit transaction conflict",
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()),
		)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.TxRetryWait
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.cfg.TxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return UpsertResult{}, attempts, err
	}
	return created, attempts, nil
}

// classifyWriteError returns a non-nil error when a failed unit transaction
// must abort the whole run.
func (p *Pipeline) classifyWriteError(ctx context.Context, err error) error {
	if domain.IsRunFatal(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	if perr := p.health.Ping(ctx); perr != nil {
		return fmt.Errorf("%w: %v (after: %v)", domain.ErrStoreUnavailable, perr, err)
	}
	return nil
}
