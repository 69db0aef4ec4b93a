package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "poem", "p1"); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "tag", "思乡")

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "tag 思乡: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	if got := MapError(wrapped, "tag", "x"); !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_AllPgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unique_violation", "23505", domain.ErrAlreadyExists},
		{"foreign_key_violation", "23503", domain.ErrNotFound},
		{"check_violation", "23514", domain.ErrValidation},
		{"deadlock_detected", "40P01", domain.ErrTransient},
		{"serialization_failure", "40001", domain.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code}), "poem", "p1")
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("MapError(code %s) = %v, want %v", tt.code, got, tt.wantErr)
			}
			if !strings.HasPrefix(got.Error(), "poem p1:") {
				t.Errorf("MapError message should start with %q, got %q", "poem p1:", got.Error())
			}
		})
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.DeadlineExceeded, context.Canceled} {
		got := MapError(ctxErr, "poem", "p1")
		if !errors.Is(got, ctxErr) {
			t.Errorf("MapError(%v) does not wrap the context error: %v", ctxErr, got)
		}
		if errors.Is(got, domain.ErrNotFound) || errors.Is(got, domain.ErrStoreUnavailable) {
			t.Errorf("MapError(%v) should not map to a domain error", ctxErr)
		}
	}
}

func TestMapError_UnknownPgError(t *testing.T) {
	t.Parallel()

	got := MapError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, "poem", "p1")

	var unwrapped *pgconn.PgError
	if !errors.As(got, &unwrapped) {
		t.Errorf("MapError(unknown PgError) does not wrap *pgconn.PgError: %v", got)
	}
	if errors.Is(got, domain.ErrAlreadyExists) || errors.Is(got, domain.ErrStoreUnavailable) {
		t.Error("MapError(unknown PgError) should not map to a domain error")
	}
}

func TestMapError_ConnectionFailure(t *testing.T) {
	t.Parallel()

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	got := MapError(fmt.Errorf("exec: %w", opErr), "poem", "p1")
	if !errors.Is(got, domain.ErrStoreUnavailable) {
		t.Errorf("MapError(net.OpError) does not wrap domain.ErrStoreUnavailable: %v", got)
	}
	if !domain.IsRunFatal(got) {
		t.Error("connection failures must be run-fatal")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	if !IsUniqueViolation(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("IsUniqueViolation(23505) = false")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("IsUniqueViolation(23503) = true")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("IsUniqueViolation(plain) = true")
	}
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"42P07", "42710"} {
		if !IsAlreadyExists(&pgconn.PgError{Code: code}) {
			t.Errorf("IsAlreadyExists(%s) = false", code)
		}
	}
	if IsAlreadyExists(&pgconn.PgError{Code: "23505"}) {
		t.Error("IsAlreadyExists(23505) = true")
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	deadlock := fmt.Errorf("tag a: %w", &pgconn.PgError{Code: "40P01"})
	if !IsTransient(deadlock) {
		t.Error("IsTransient(40P01) = false, want true")
	}
	if domain.IsRunFatal(MapError(deadlock, "tag", "a")) {
		t.Error("a deadlock must not abort the run")
	}
	if IsTransient(&pgconn.PgError{Code: "23505"}) {
		t.Error("IsTransient(23505) = true, want false")
	}
	if IsTransient(errors.New("deadlock")) {
		t.Error("IsTransient(plain error) = true, want false")
	}
}
