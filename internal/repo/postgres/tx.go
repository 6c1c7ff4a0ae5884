package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSerialization marks transactions that lost to a concurrent writer
// (serialization failure or deadlock). Callers may retry.
var ErrSerialization = errors.New("transaction serialization conflict")

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return translateConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateConflict(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// TxRunner lets services run closures inside a transaction without holding
// the pool themselves, so tests can substitute an in-memory runner.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil {
		return errors.New("tx runner is nil")
	}
	return WithTx(ctx, r.pool, fn)
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
		}
	}
	return err
}
