package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// UpsertResult counts what a single Upsert actually created.
type UpsertResult struct {
	TagsCreated  int
	LinksCreated int
}

// Engine performs the idempotent write sequence for one poem record:
// upsert poem, then for each tag insert-if-absent, resolve id, link-if-absent.
type Engine struct {
	store PoemStore
}

// NewEngine creates an Engine writing through store.
func NewEngine(store PoemStore) *Engine {
	return &Engine{store: store}
}

// Upsert writes rec. It is expected to run inside the unit's transaction
// (carried in ctx). Re-running it with the same record only refreshes the poem row.
//
// A tag that cannot be resolved right after insert-if-absent returns an error
// wrapping domain.ErrConsistency.
func (e *Engine) Upsert(ctx context.Context, rec domain.PoemRecord) (UpsertResult, error) {
	var res UpsertResult

	if err := e.store.UpsertPoem(ctx, rec.Poem()); err != nil {
		return res, fmt.Errorf("upsert poem %s: %w", rec.ID, err)
	}

	linked := make(map[int64]bool, len(rec.Tags))
	for _, name := range rec.Tags {
		created, err := e.ensureTag(ctx, name)
		if err != nil {
			return res, fmt.Errorf("poem %s: %w", rec.ID, err)
		}
		if created {
			res.TagsCreated++
		}

		tagID, err := e.resolveTag(ctx, name)
		if err != nil {
			return res, fmt.Errorf("poem %s: %w", rec.ID, err)
		}

		if linked[tagID] {
			continue
		}
		linked[tagID] = true

		created, err = e.link(ctx, rec.ID, tagID)
		if err != nil {
			return res, fmt.Errorf("poem %s: tag %q: %w", rec.ID, name, err)
		}
		if created {
			res.LinksCreated++
		}
	}

	return res, nil
}

// ensureTag is the insert-if-absent step. Both outcomes
// (not-present → inserted, already-present) continue to resolution.
func (e *Engine) ensureTag(ctx context.Context, name string) (bool, error) {
	err := e.store.InsertTag(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case isDuplicateKey(err):
		return false, nil
	default:
		return false, fmt.Errorf("insert tag %q: %w", name, err)
	}
}

func (e *Engine) resolveTag(ctx context.Context, name string) (int64, error) {
	id, err := e.store.TagIDByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("tag %q missing after insert: %w", name, domain.ErrConsistency)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve tag %q: %w", name, err)
	}
	return id, nil
}

func (e *Engine) link(ctx context.Context, poemID string, tagID int64) (bool, error) {
	err := e.store.LinkTag(ctx, poemID, tagID)
	switch {
	case err == nil:
		return true, nil
	case isDuplicateKey(err):
		return false, nil
	default:
		return false, fmt.Errorf("link tag %d: %w", tagID, err)
	}
}

// isDuplicateKey reports an expected uniqueness conflict, as classified by the store adapter.
func isDuplicateKey(err error) bool {
	return errors.Is(err, domain.ErrAlreadyExists)
}
