// Package units enumerates the source files of a poem corpus directory.
// Pure function: directory path and exclusion list in, ordered units out.
package units

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExclude lists non-poem files shipped alongside the chinese-poetry corpus.
var DefaultExclude = []string{
	"authors.song.json",
	"authors.tang.json",
	"README.md",
	"表面结构字.json",
}

// Unit is one source file yielding an independent sequence of poem records.
type Unit struct {
	Name string // base file name, used in reports
	Path string
}

// Exclusion decides which directory entries are skipped before loading.
// Patterns starting with "." and containing no glob metacharacters are
// extensions (".md"); anything else is matched against the base name with
// filepath.Match, so plain names match exactly.
type Exclusion struct {
	names      map[string]bool
	extensions map[string]bool
	globs      []string
}

// NewExclusion compiles an exclusion list. It fails on malformed glob patterns.
func NewExclusion(patterns []string) (*Exclusion, error) {
	ex := &Exclusion{
		names:      make(map[string]bool),
		extensions: make(map[string]bool),
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch {
		case strings.ContainsAny(p, "*?["):
			if _, err := filepath.Match(p, ""); err != nil {
				return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
			}
			ex.globs = append(ex.globs, p)
		case strings.HasPrefix(p, ".") && !strings.Contains(p[1:], "."):
			ex.extensions[strings.ToLower(p)] = true
		default:
			ex.names[p] = true
		}
	}
	return ex, nil
}

// Excluded reports whether the file name must be skipped.
func (e *Exclusion) Excluded(name string) bool {
	if e == nil {
		return false
	}
	if e.names[name] {
		return true
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && e.extensions[ext] {
		return true
	}
	for _, g := range e.globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Skipped describes a directory entry that was not turned into a unit.
type Skipped struct {
	Name   string
	Reason string
}

// List returns the regular files of dir that are not excluded, in lexical
// order of their names, plus the entries it skipped.
func List(dir string, ex *Exclusion) ([]Unit, []Skipped, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", dir)
	}

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read directory: %w", err)
	}

	var (
		units   []Unit
		skipped []Skipped
	)
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			skipped = append(skipped, Skipped{Name: name, Reason: "directory"})
		case strings.HasPrefix(name, "."):
			skipped = append(skipped, Skipped{Name: name, Reason: "hidden"})
		case !entry.Type().IsRegular():
			skipped = append(skipped, Skipped{Name: name, Reason: "not a regular file"})
		case ex.Excluded(name):
			skipped = append(skipped, Skipped{Name: name, Reason: "excluded"})
		default:
			units = append(units, Unit{Name: name, Path: filepath.Join(dir, name)})
		}
	}

	return units, skipped, nil
}
