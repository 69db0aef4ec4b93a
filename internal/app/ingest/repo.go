// Package ingest defines interfaces and orchestration for the poem ingestion pipeline.
package ingest

import (
	"context"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// PoemStore is the write contract consumed by the upsert engine.
// All methods use only domain types; adapters classify their own errors and
// report uniqueness conflicts as domain.ErrAlreadyExists.
// Implemented by the postgres and sqlite poem repositories.
type PoemStore interface {
	// UpsertPoem inserts the poem or overwrites title, author and content in one statement.
	UpsertPoem(ctx context.Context, p domain.Poem) error

	// InsertTag creates a tag. Returns domain.ErrAlreadyExists if the name is taken.
	InsertTag(ctx context.Context, name string) error

	// TagIDByName resolves a tag name. Returns domain.ErrNotFound if absent.
	TagIDByName(ctx context.Context, name string) (int64, error)

	// LinkTag creates the (poem, tag) association.
	// Returns domain.ErrAlreadyExists if the pair is already present.
	LinkTag(ctx context.Context, poemID string, tagID int64) error
}

// TxManager runs fn inside one store transaction carried by the callback context.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StoreHealth is consulted after a failed unit to tell a bad unit from a lost store.
type StoreHealth interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (domain.StoreCounts, error)
}
