package domain

import "strings"

// ContentSeparator joins poem paragraphs into stored content.
const ContentSeparator = "\n"

// Poem is a stored poem row keyed by its source identifier.
type Poem struct {
	ID      string
	Title   string
	Author  string
	Content string
}

// Tag is a stored tag. ID is assigned by the store on first insertion.
type Tag struct {
	ID   int64
	Name string
}

// PoemTag links a poem to a tag. The pair is unique.
type PoemTag struct {
	PoemID string
	TagID  int64
}

// PoemRecord is a single poem as read from a source unit, after normalization.
type PoemRecord struct {
	ID         string
	Title      string
	Author     string
	Paragraphs []string
	Tags       []string
}

// Poem converts the record to its stored form.
func (r PoemRecord) Poem() Poem {
	return Poem{
		ID:      r.ID,
		Title:   r.Title,
		Author:  r.Author,
		Content: strings.Join(r.Paragraphs, ContentSeparator),
	}
}

// StoreCounts holds row totals for the three poem tables.
type StoreCounts struct {
	Poems    int
	Tags     int
	PoemTags int
}
