package poem_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite"
	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite/poem"
	"github.com/heartmarshall/poetry-loader/internal/adapter/sqlite/testhelper"
	"github.com/heartmarshall/poetry-loader/internal/domain"
)

func newRepo(t *testing.T) (*poem.Repo, *sql.DB) {
	t.Helper()
	db := testhelper.SetupTestDB(t)
	return poem.New(db), db
}

func TestRepo_UpsertPoem_InsertThenOverwrite(t *testing.T) {
	repo, db := newRepo(t)
	ctx := context.Background()

	p := domain.Poem{ID: "p1", Title: "静夜思", Author: "李白", Content: "床前明月光"}
	require.NoError(t, repo.UpsertPoem(ctx, p))

	p.Title = "夜思"
	p.Content = "床前看月光\n疑是地上霜"
	require.NoError(t, repo.UpsertPoem(ctx, p))

	var title, content string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT title, content FROM poems WHERE id = ?`, "p1").Scan(&title, &content))
	assert.Equal(t, "夜思", title)
	assert.Equal(t, "床前看月光\n疑是地上霜", content)

	c, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Poems)
}

func TestRepo_InsertTag_Duplicate(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertTag(ctx, "思乡"))
	err := repo.InsertTag(ctx, "思乡")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRepo_TagIDByName(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.TagIDByName(ctx, "边塞")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.InsertTag(ctx, "边塞"))
	require.NoError(t, repo.InsertTag(ctx, "送别"))

	a, err := repo.TagIDByName(ctx, "边塞")
	require.NoError(t, err)
	b, err := repo.TagIDByName(ctx, "送别")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRepo_LinkTag(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPoem(ctx, domain.Poem{ID: "p1", Title: "t", Author: "a"}))
	require.NoError(t, repo.InsertTag(ctx, "x"))
	id, err := repo.TagIDByName(ctx, "x")
	require.NoError(t, err)

	require.NoError(t, repo.LinkTag(ctx, "p1", id))
	assert.ErrorIs(t, repo.LinkTag(ctx, "p1", id), domain.ErrAlreadyExists)
	assert.ErrorIs(t, repo.LinkTag(ctx, "missing", id), domain.ErrNotFound, "foreign keys are enforced")

	c, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreCounts{Poems: 1, Tags: 1, PoemTags: 1}, c)
}

func TestRepo_DuplicateInsideTransactionKeepsItUsable(t *testing.T) {
	repo, db := newRepo(t)
	tm := sqlite.NewTxManager(db)
	ctx := context.Background()

	require.NoError(t, repo.InsertTag(ctx, "x"))

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.InsertTag(ctx, "x"); !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		return repo.UpsertPoem(ctx, domain.Poem{ID: "p1", Title: "t", Author: "a"})
	})
	require.NoError(t, err)

	c, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Poems)
}

func TestRepo_Ping(t *testing.T) {
	repo, db := newRepo(t)
	require.NoError(t, repo.Ping(context.Background()))

	_ = db.Close()
	assert.ErrorIs(t, repo.Ping(context.Background()), domain.ErrStoreUnavailable)
}
