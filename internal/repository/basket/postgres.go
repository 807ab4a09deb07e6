package basket

import (
	"context"
	"io"
	"log"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/txn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetActiveItems(ctx context.Context, userID string) ([]domain.BasketLine, error) {
	const q = `
SELECT id::text, user_id::text, product_id::text, product_name, quantity, unit_price_cents, purchased, created_at
FROM basket_lines
WHERE user_id = $1 AND purchased = FALSE
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.logger.Printf("basket repo: list user=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var lines []domain.BasketLine
	for rows.Next() {
		var l domain.BasketLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPriceCents, &l.Purchased, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddItem inserts a new line snapshotting the product's current name and
// price, or bumps the quantity of an existing unpurchased line for the same
// product without touching its snapshot.
func (r *postgresRepo) AddItem(ctx context.Context, userID string, product domain.Product, quantity int) error {
	const q = `
INSERT INTO basket_lines (user_id, product_id, product_name, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, product_id) WHERE purchased = FALSE
DO UPDATE SET quantity = basket_lines.quantity + EXCLUDED.quantity
`
	_, err := r.pool.Exec(ctx, q, userID, product.ID, product.Name, quantity, product.PriceCents)
	if err != nil {
		r.logger.Printf("basket repo: add user=%s product=%s error=%v", userID, product.ID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) ChangeQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	const q = `
UPDATE basket_lines
SET quantity = $1
WHERE id = $2 AND user_id = $3 AND purchased = FALSE
`
	ct, err := r.pool.Exec(ctx, q, quantity, lineID, userID)
	if err != nil {
		r.logger.Printf("basket repo: change user=%s line=%s error=%v", userID, lineID, err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM basket_lines WHERE user_id = $1 AND purchased = FALSE`, userID)
	if err != nil {
		r.logger.Printf("basket repo: clear user=%s error=%v", userID, err)
	}
	return err
}

func (r *postgresRepo) MarkPurchased(ctx context.Context, q txn.Querier, userID string) error {
	_, err := q.Exec(ctx, `UPDATE basket_lines SET purchased = TRUE WHERE user_id = $1 AND purchased = FALSE`, userID)
	return err
}
