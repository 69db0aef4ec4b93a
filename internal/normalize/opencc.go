package normalize

import (
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// DefaultConversion folds traditional Chinese characters to simplified ones.
const DefaultConversion = "t2s"

// OpenCC converts between Chinese script variants using OpenCC dictionaries.
type OpenCC struct {
	mu         sync.Mutex
	cc         *opencc.OpenCC
	conversion string
}

// NewOpenCC loads the dictionaries for the named conversion (e.g. "t2s", "tw2s").
func NewOpenCC(conversion string) (*OpenCC, error) {
	if conversion == "" {
		conversion = DefaultConversion
	}
	cc, err := opencc.New(conversion)
	if err != nil {
		return nil, fmt.Errorf("opencc %s: %w", conversion, err)
	}
	return &OpenCC{cc: cc, conversion: conversion}, nil
}

// Normalize converts s with the loaded conversion.
func (o *OpenCC) Normalize(s string) (string, error) {
	if err := checkUTF8(s); err != nil {
		return "", err
	}
	if s == "" {
		return s, nil
	}

	o.mu.Lock()
	out, err := o.cc.Convert(s)
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: opencc %s: %v", domain.ErrMalformedText, o.conversion, err)
	}
	return out, nil
}

// Options selects the normalization steps applied to every text field.
type Options struct {
	// Mode is "t2s" (OpenCC folding) or "none".
	Mode string
	// Conversion overrides the OpenCC conversion name when Mode is "t2s".
	Conversion string
	// UnicodeForm is applied after script folding; empty disables it.
	UnicodeForm string
}

// New builds the normalizer chain described by opts.
func New(opts Options) (Normalizer, error) {
	var chain Chain

	switch opts.Mode {
	case "", "t2s":
		cc, err := NewOpenCC(opts.Conversion)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cc)
	case "none":
	default:
		return nil, fmt.Errorf("unknown normalizer mode %q", opts.Mode)
	}

	if opts.UnicodeForm != "" {
		u, err := NewUnicode(opts.UnicodeForm)
		if err != nil {
			return nil, err
		}
		chain = append(chain, u)
	}

	if len(chain) == 0 {
		return Identity, nil
	}
	return chain, nil
}
