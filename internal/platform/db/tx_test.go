package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestWithTx_NilPool(t *testing.T) {
	_, _, err := WithTx(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestRunWithRetry_ExhaustedSerializationFailures(t *testing.T) {
	attempts := 0
	err := runWithRetry(func() error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})

	if attempts != maxTxAttempts {
		t.Errorf("expected %d attempts, got %d", maxTxAttempts, attempts)
	}
	var conflictErr *apperr.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError after exhausted retries, got %T: %v", err, err)
	}
}

func TestRunWithRetry_SucceedsAfterRetry(t *testing.T) {
	attempts := 0
	err := runWithRetry(func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRunWithRetry_NonRetryableReturnsImmediately(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	err := runWithRetry(func() error {
		attempts++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"wrapped serialization failure", fmt.Errorf("run: %w", &pgconn.PgError{Code: "40001"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
