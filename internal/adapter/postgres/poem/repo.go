// Package poem implements the poem, tag and poem-tag repository using PostgreSQL.
// Tag and link inserts use ON CONFLICT DO NOTHING so that an existing row never
// aborts the surrounding unit transaction; a no-op insert is reported as
// domain.ErrAlreadyExists.
package poem

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/poetry-loader/internal/adapter/postgres"
	"github.com/heartmarshall/poetry-loader/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides poem persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new poem repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// UpsertPoem inserts the poem or overwrites its title, author and content.
func (r *Repo) UpsertPoem(ctx context.Context, p domain.Poem) error {
	query, args, err := psql.
		Insert("poems").
		Columns("id", "title", "author", "content").
		Values(p.ID, p.Title, p.Author, p.Content).
		Suffix("ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author, content = EXCLUDED.content").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert poem: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "poem", p.ID)
	}
	return nil
}

// InsertTag creates a tag. Returns domain.ErrAlreadyExists if the name is taken.
func (r *Repo) InsertTag(ctx context.Context, name string) error {
	query, args, err := psql.
		Insert("tags").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tag: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "tag", name)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", name, domain.ErrAlreadyExists)
	}
	return nil
}

// LinkTag associates a poem with a tag.
// Returns domain.ErrAlreadyExists if the pair is already present.
func (r *Repo) LinkTag(ctx context.Context, poemID string, tagID int64) error {
	query, args, err := psql.
		Insert("poem_tags").
		Columns("poem_id", "tag_id").
		Values(poemID, tagID).
		Suffix("ON CONFLICT (poem_id, tag_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build link tag: %w", err)
	}

	key := fmt.Sprintf("%s/%d", poemID, tagID)
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "poem_tag", key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("poem_tag %s: %w", key, domain.ErrAlreadyExists)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// TagIDByName resolves a tag name. Returns domain.ErrNotFound if absent.
func (r *Repo) TagIDByName(ctx context.Context, name string) (int64, error) {
	query, args, err := psql.
		Select("id").
		From("tags").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build tag lookup: %w", err)
	}

	var id int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "tag", name)
	}
	return id, nil
}

// Counts returns the current row count of each table.
func (r *Repo) Counts(ctx context.Context) (domain.StoreCounts, error) {
	query, args, err := psql.
		Select(
			"(SELECT count(*) FROM poems)",
			"(SELECT count(*) FROM tags)",
			"(SELECT count(*) FROM poem_tags)",
		).
		ToSql()
	if err != nil {
		return domain.StoreCounts{}, fmt.Errorf("build counts: %w", err)
	}

	var c domain.StoreCounts
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&c.Poems, &c.Tags, &c.PoemTags); err != nil {
		return domain.StoreCounts{}, postgres.MapError(err, "store", "counts")
	}
	return c, nil
}

// Ping checks that the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
