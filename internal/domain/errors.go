package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	// ErrMalformedText is returned by normalizers for input they cannot fold
	// (invalid encoding). It is fatal to the whole run.
	ErrMalformedText = errors.New("malformed text")

	// ErrConsistency signals that the store contradicted a write it had just
	// confirmed, e.g. a tag that was inserted or already present cannot be resolved.
	ErrConsistency = errors.New("store consistency violation")

	// ErrTransient marks a write the store aborted because of a conflict with a
	// concurrent transaction (deadlock, serialization failure, busy database).
	// Re-running the whole transaction may succeed.
	ErrTransient = errors.New("transient store conflict")

	// ErrStoreUnavailable means the store connection could not be established
	// or was lost mid-run.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors (first: %s: %s)", len(e.Errors), e.Errors[0].Field, e.Errors[0].Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// IsRunFatal reports whether err must abort the whole ingestion run rather
// than only the unit that produced it.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrMalformedText) ||
		errors.Is(err, ErrConsistency) ||
		errors.Is(err, ErrStoreUnavailable)
}
