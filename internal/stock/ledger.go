package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/txn"
	"github.com/jackc/pgx/v5"
)

// Ledger owns authoritative stock reads and decrements. Reserve must be
// called while holding the product:<id> lease; the lease, not a row lock, is
// the concurrency guard for the check-then-decrement.
type Ledger struct {
	logger *log.Logger
}

func NewLedger(logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Ledger{logger: logger}
}

// Reserve decrements stock for one product on the caller's querier. The
// GREATEST floor keeps stock non-negative even if an unguarded writer
// slipped past the lease.
func (l *Ledger) Reserve(ctx context.Context, q txn.Querier, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("stock: reserve %s: quantity must be positive", productID)
	}

	var available int
	err := q.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("stock: read %s: %w", productID, err)
	}

	if quantity > available {
		l.logger.Printf("stock: reject product=%s requested=%d available=%d", productID, quantity, available)
		return domain.ErrInsufficientStock
	}

	_, err = q.Exec(ctx, `
UPDATE products
SET stock_quantity = GREATEST(stock_quantity - $2, 0),
    updated_at = now()
WHERE id = $1
`, productID, quantity)
	if err != nil {
		return fmt.Errorf("stock: decrement %s: %w", productID, err)
	}
	l.logger.Printf("stock: reserved product=%s qty=%d remaining=%d", productID, quantity, available-quantity)
	return nil
}

// Replenish adds stock back, e.g. on a supplier delivery.
func (l *Ledger) Replenish(ctx context.Context, q txn.Querier, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("stock: replenish %s: quantity must be positive", productID)
	}
	ct, err := q.Exec(ctx, `
UPDATE products
SET stock_quantity = stock_quantity + $2,
    updated_at = now()
WHERE id = $1
`, productID, quantity)
	if err != nil {
		return fmt.Errorf("stock: replenish %s: %w", productID, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
