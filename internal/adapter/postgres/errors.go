package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// PostgreSQL error codes the adapter classifies.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeDuplicateTable      = "42P07"
	codeDuplicateObject     = "42710"
	codeSerialization       = "40001"
	codeDeadlockDetected    = "40P01"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsAlreadyExists reports whether err is a "relation/object already exists" error.
func IsAlreadyExists(err error) bool {
	return hasCode(err, codeDuplicateTable) || hasCode(err, codeDuplicateObject)
}

// IsTransient reports whether err is a deadlock or serialization failure,
// after which the whole transaction can be re-run.
func IsTransient(err error) bool {
	return hasCode(err, codeDeadlockDetected) || hasCode(err, codeSerialization)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// MapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}

	// pgx.ErrNoRows → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrAlreadyExists)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrValidation)
		case codeDeadlockDetected, codeSerialization:
			return fmt.Errorf("%s %s: %w: %w", entity, key, domain.ErrTransient, err)
		}
	}

	// Everything else: wrap with context
	return mapConnError(fmt.Errorf("%s %s: %w", entity, key, err))
}

// mapConnError tags connection-level failures with domain.ErrStoreUnavailable.
func mapConnError(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}
