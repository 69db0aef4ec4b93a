// Package poem implements the poem, tag and poem-tag repository on SQLite.
package poem

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite"
	"github.com/heartmarshall/poetry-loader/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Repo provides poem persistence backed by SQLite.
type Repo struct {
	db *sql.DB
}

// New creates a new poem repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// UpsertPoem inserts the poem or overwrites its title, author and content.
func (r *Repo) UpsertPoem(ctx context.Context, p domain.Poem) error {
	query, args, err := builder.
		Insert("poems").
		Columns("id", "title", "author", "content").
		Values(p.ID, p.Title, p.Author, p.Content).
		Suffix("ON CONFLICT (id) DO UPDATE SET title = excluded.title, author = excluded.author, content = excluded.content").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert poem: %w", err)
	}

	if _, err := sqlite.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return sqlite.MapError(err, "poem", p.ID)
	}
	return nil
}

// InsertTag creates a tag. Returns domain.ErrAlreadyExists if the name is taken.
// A failed statement does not abort an SQLite transaction, so the plain
// insert's constraint error is classified directly.
func (r *Repo) InsertTag(ctx context.Context, name string) error {
	query, args, err := builder.Insert("tags").Columns("name").Values(name).ToSql()
	if err != nil {
		return fmt.Errorf("build insert tag: %w", err)
	}

	if _, err := sqlite.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return sqlite.MapError(err, "tag", name)
	}
	return nil
}

// TagIDByName resolves a tag name. Returns domain.ErrNotFound if absent.
func (r *Repo) TagIDByName(ctx context.Context, name string) (int64, error) {
	query, args, err := builder.Select("id").From("tags").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build tag lookup: %w", err)
	}

	var id int64
	if err := sqlite.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, sqlite.MapError(err, "tag", name)
	}
	return id, nil
}

// LinkTag associates a poem with a tag.
// Returns domain.ErrAlreadyExists if the pair is already present.
func (r *Repo) LinkTag(ctx context.Context, poemID string, tagID int64) error {
	query, args, err := builder.
		Insert("poem_tags").
		Columns("poem_id", "tag_id").
		Values(poemID, tagID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build link tag: %w", err)
	}

	if _, err := sqlite.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return sqlite.MapError(err, "poem_tag", fmt.Sprintf("%s/%d", poemID, tagID))
	}
	return nil
}

// Counts returns the current row count of each table.
func (r *Repo) Counts(ctx context.Context) (domain.StoreCounts, error) {
	query, args, err := builder.
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
	row := sqlite.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...)
	if err := row.Scan(&c.Poems, &c.Tags, &c.PoemTags); err != nil {
		return domain.StoreCounts{}, sqlite.MapError(err, "store", "counts")
	}
	return c, nil
}

// Ping checks that the database file is still usable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
