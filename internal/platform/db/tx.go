package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the active transaction from context, if any.
// Repositories consult it so nested calls join the caller's transaction.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx begins a transaction on the pool and returns a derived context that
// carries it. The caller owns Commit/Rollback.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (context.Context, pgx.Tx, error) {
	if pool == nil {
		return ctx, nil, fmt.Errorf("no database connection in context")
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// maxTxAttempts bounds retries of serialization failures before the conflict
// is surfaced to the caller.
const maxTxAttempts = 3

// Runner executes a function inside a database transaction. Services depend on
// this interface so unit tests can substitute a passthrough implementation.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolRunner runs functions in serializable transactions on a pgx pool,
// retrying serialization and deadlock failures up to maxTxAttempts.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{Pool: pool}
}

func (r *PoolRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runWithRetry(func() error {
		return r.runOnce(ctx, fn)
	})
}

// runWithRetry retries serialization failures up to maxTxAttempts, then
// surfaces a ConflictError so the handler layer answers 409, not 500.
func runWithRetry(attempt func() error) error {
	var lastErr error
	for i := 1; i <= maxTxAttempts; i++ {
		err := attempt()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return apperr.Conflict("transaction conflict after %d attempts: %v", maxTxAttempts, lastErr)
}

func (r *PoolRunner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := context.WithValue(ctx, DBTxKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// retryable reports whether err is a serialization failure (40001) or
// deadlock (40P01) that a fresh attempt may resolve.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
