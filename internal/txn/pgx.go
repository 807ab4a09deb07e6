package txn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxCoordinator implements Coordinator on a pgx connection pool.
type PgxCoordinator struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPgx(pool *pgxpool.Pool, logger *log.Logger) *PgxCoordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PgxCoordinator{pool: pool, logger: logger}
}

func (c *PgxCoordinator) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgxTx{tx: tx, logger: c.logger}, nil
}

type pgxTx struct {
	tx     pgx.Tx
	logger *log.Logger

	mu   sync.Mutex
	done bool
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t *pgxTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *pgxTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *pgxTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return domain.ErrNoActiveTransaction
	}
	t.done = true
	t.mu.Unlock()

	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback is safe on every exit path: after a Commit it is a no-op, and an
// underlying failure is logged rather than returned so it cannot shadow the
// error that caused the rollback.
func (t *pgxTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	t.mu.Unlock()

	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		t.logger.Printf("txn: rollback failed: %v", err)
	}
	return nil
}
