package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedPoem inserts a poem with a unique id and returns it.
func SeedPoem(t *testing.T, pool *pgxpool.Pool) domain.Poem {
	t.Helper()

	suffix := UniqueSuffix()
	p := domain.Poem{
		ID:      uuid.New().String(),
		Title:   "title-" + suffix,
		Author:  "author-" + suffix,
		Content: "line one\nline two",
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO poems (id, title, author, content) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Title, p.Author, p.Content,
	)
	if err != nil {
		t.Fatalf("testhelper: seed poem: %v", err)
	}
	return p
}

// SeedTag inserts a tag with a unique name and returns it.
func SeedTag(t *testing.T, pool *pgxpool.Pool) domain.Tag {
	t.Helper()

	tag := domain.Tag{Name: "tag-" + UniqueSuffix()}
	err := pool.QueryRow(context.Background(),
		`INSERT INTO tags (name) VALUES ($1) RETURNING id`, tag.Name,
	).Scan(&tag.ID)
	if err != nil {
		t.Fatalf("testhelper: seed tag: %v", err)
	}
	return tag
}

// CountLinks returns the number of poem_tags rows for a poem.
func CountLinks(t *testing.T, pool *pgxpool.Pool, poemID string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM poem_tags WHERE poem_id = $1`, poemID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("testhelper: count links: %v", err)
	}
	return n
}
