// Package normalize folds surface variants of poem text into a canonical form.
// Normalizers are pure and deterministic; an error means the input could not be
// interpreted as text and is fatal to an ingestion run.
package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// Normalizer maps raw text to canonical text.
type Normalizer interface {
	Normalize(s string) (string, error)
}

// Func adapts a plain function to the Normalizer interface.
type Func func(s string) (string, error)

// Normalize calls f(s).
func (f Func) Normalize(s string) (string, error) { return f(s) }

// Identity returns its input unchanged, rejecting only invalid UTF-8.
var Identity Normalizer = Func(func(s string) (string, error) {
	if err := checkUTF8(s); err != nil {
		return "", err
	}
	return s, nil
})

// Chain applies normalizers left to right.
type Chain []Normalizer

// Normalize runs s through every normalizer in the chain.
func (c Chain) Normalize(s string) (string, error) {
	if err := checkUTF8(s); err != nil {
		return "", err
	}
	var err error
	for _, n := range c {
		if s, err = n.Normalize(s); err != nil {
			return "", err
		}
	}
	return s, nil
}

// Unicode applies a Unicode normalization form.
type Unicode struct {
	form norm.Form
}

// NewUnicode returns a Unicode normalizer for the named form
// (nfc, nfd, nfkc, nfkd; case-insensitive).
func NewUnicode(form string) (*Unicode, error) {
	f, err := parseForm(form)
	if err != nil {
		return nil, err
	}
	return &Unicode{form: f}, nil
}

// Normalize applies the configured normalization form.
func (u *Unicode) Normalize(s string) (string, error) {
	if err := checkUTF8(s); err != nil {
		return "", err
	}
	return u.form.String(s), nil
}

func parseForm(form string) (norm.Form, error) {
	switch strings.ToLower(strings.TrimSpace(form)) {
	case "nfc":
		return norm.NFC, nil
	case "nfd":
		return norm.NFD, nil
	case "nfkc":
		return norm.NFKC, nil
	case "nfkd":
		return norm.NFKD, nil
	default:
		return 0, fmt.Errorf("unknown unicode form %q", form)
	}
}

func checkUTF8(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", domain.ErrMalformedText, truncate(s, 32))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
