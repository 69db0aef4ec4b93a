// Package poems reads chinese-poetry style JSON units into normalized poem records.
// No database dependencies: unit in, domain records out.
//
// A unit is a JSON array of objects:
//
//	[{"id": "...", "title": "...", "author": "...", "paragraphs": ["..."], "tags": ["..."]}]
//
// "tags" is optional; unknown fields are ignored.
package poems

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/heartmarshall/poetry-loader/internal/app/ingest/units"
	"github.com/heartmarshall/poetry-loader/internal/domain"
	"github.com/heartmarshall/poetry-loader/internal/normalize"
)

// MalformedUnitError reports a unit that cannot be read as a sequence of poem
// records. It aborts that unit only.
type MalformedUnitError struct {
	Unit string
	Err  error
}

func (e *MalformedUnitError) Error() string {
	return fmt.Sprintf("malformed unit %s: %v", e.Unit, e.Err)
}

func (e *MalformedUnitError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is (or wraps) a *MalformedUnitError.
func IsMalformed(err error) bool {
	var mu *MalformedUnitError
	return errors.As(err, &mu)
}

// rawPoem mirrors the JSON shape. Pointers distinguish missing (or null) from empty.
type rawPoem struct {
	ID         *string    `json:"id"`
	Title      *string    `json:"title"`
	Author     *string    `json:"author"`
	Paragraphs *[]*string `json:"paragraphs"`
	Tags       []*string  `json:"tags"`
}

// Loader reads units and normalizes every textual field of their records.
type Loader struct {
	norm normalize.Normalizer
}

// NewLoader creates a Loader using n for all text fields.
func NewLoader(n normalize.Normalizer) *Loader {
	return &Loader{norm: n}
}

// Load reads and normalizes all records of unit.
// Unreadable or ill-shaped input returns *MalformedUnitError; a normalizer
// failure is returned as-is (it wraps domain.ErrMalformedText and is run-fatal).
func (l *Loader) Load(unit units.Unit) ([]domain.PoemRecord, error) {
	data, err := os.ReadFile(unit.Path)
	if err != nil {
		return nil, &MalformedUnitError{Unit: unit.Name, Err: fmt.Errorf("read: %w", err)}
	}
	return l.Decode(unit.Name, data)
}

// Decode parses data as the content of the unit called name.
func (l *Loader) Decode(name string, data []byte) ([]domain.PoemRecord, error) {
	// json.Unmarshal accepts a top-level null into a slice; a unit must be an array.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedUnitError{Unit: name, Err: errors.New("decode: top level is not a JSON array")}
	}

	var raws []rawPoem
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &MalformedUnitError{Unit: name, Err: fmt.Errorf("decode: %w", err)}
	}

	if err := validate(raws); err != nil {
		return nil, &MalformedUnitError{Unit: name, Err: err}
	}

	records := make([]domain.PoemRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := l.normalizeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("unit %s: record %d (id %s): %w", name, i, *raw.ID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// validate collects every missing required field and null list element across the unit.
func validate(raws []rawPoem) error {
	var fieldErrs []domain.FieldError
	missing := func(i int, field string) {
		fieldErrs = append(fieldErrs, domain.FieldError{
			Field:   fmt.Sprintf("[%d].%s", i, field),
			Message: "required",
		})
	}
	nullElems := func(i int, field string, elems []*string) {
		for j, e := range elems {
			if e == nil {
				fieldErrs = append(fieldErrs, domain.FieldError{
					Field:   fmt.Sprintf("[%d].%s[%d]", i, field, j),
					Message: "wrong type",
				})
			}
		}
	}

	for i, raw := range raws {
		if raw.ID == nil || *raw.ID == "" {
			missing(i, "id")
		}
		if raw.Title == nil {
			missing(i, "title")
		}
		if raw.Author == nil {
			missing(i, "author")
		}
		if raw.Paragraphs == nil {
			missing(i, "paragraphs")
		} else {
			nullElems(i, "paragraphs", *raw.Paragraphs)
		}
		nullElems(i, "tags", raw.Tags)
	}

	if len(fieldErrs) > 0 {
		return domain.NewValidationErrors(fieldErrs)
	}
	return nil
}

func (l *Loader) normalizeRecord(raw rawPoem) (domain.PoemRecord, error) {
	title, err := l.norm.Normalize(*raw.Title)
	if err != nil {
		return domain.PoemRecord{}, fmt.Errorf("normalize title: %w", err)
	}
	author, err := l.norm.Normalize(*raw.Author)
	if err != nil {
		return domain.PoemRecord{}, fmt.Errorf("normalize author: %w", err)
	}

	paragraphs, err := l.normalizeAll(*raw.Paragraphs)
	if err != nil {
		return domain.PoemRecord{}, fmt.Errorf("normalize paragraphs: %w", err)
	}
	tags, err := l.normalizeAll(raw.Tags)
	if err != nil {
		return domain.PoemRecord{}, fmt.Errorf("normalize tags: %w", err)
	}

	return domain.PoemRecord{
		ID:         *raw.ID,
		Title:      title,
		Author:     author,
		Paragraphs: paragraphs,
		Tags:       tags,
	}, nil
}

// normalizeAll expects validate to have rejected nil elements.
func (l *Loader) normalizeAll(in []*string) ([]string, error) {
	out := make([]string, len(in))
	for i, s := range in {
		n, err := l.norm.Normalize(*s)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}
