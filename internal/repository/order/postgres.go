package order

import (
	"context"
	"errors"
	"io"
	"log"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/txn"
	"github.com/jackc/pgx/v5"
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

func (r *postgresRepo) Create(ctx context.Context, q txn.Querier, o *domain.Order) error {
	const insertOrder = `
INSERT INTO orders (id, user_id, status, total_cents, idempotency_key, shipping_address, billing_address)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
RETURNING created_at, updated_at
`
	err := q.QueryRow(ctx, insertOrder,
		o.ID,
		o.UserID,
		string(o.Status),
		o.TotalCents,
		o.IdempotencyKey,
		o.ShippingAddress,
		o.BillingAddress,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		r.logger.Printf("order repo: insert id=%s error=%v", o.ID, err)
		return err
	}

	const insertItem = `
INSERT INTO order_line_items (order_id, product_id, product_name, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text
`
	for i := range o.LineItems {
		it := &o.LineItems[i]
		it.OrderID = o.ID
		if err := q.QueryRow(ctx, insertItem, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPriceCents).Scan(&it.ID); err != nil {
			r.logger.Printf("order repo: insert item order=%s product=%s error=%v", o.ID, it.ProductID, err)
			return err
		}
	}
	return nil
}

const orderColumns = `
id::text, user_id::text, status, total_cents, COALESCE(idempotency_key, ''), shipping_address, billing_address, created_at, updated_at
`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetch(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	return r.fetch(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Printf("order repo: list user=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].LineItems = items
	}
	return orders, nil
}

// UpdateStatus is a compare-and-set: the row only moves when it is still in
// the expected state, so two racing transitions cannot both win.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id::text
`
	var updatedID string
	err := r.pool.QueryRow(ctx, q, id, string(to), string(from)).Scan(&updatedID)
	if err == nil {
		return r.GetByID(ctx, updatedID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Printf("order repo: update status id=%s error=%v", id, err)
		return nil, err
	}
	// Zero rows: either the order is gone or another transition got there
	// first. Look it up to report the right failure.
	if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, domain.ErrInvalidOrderState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&status,
		&o.TotalCents,
		&o.IdempotencyKey,
		&o.ShippingAddress,
		&o.BillingAddress,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *postgresRepo) fetch(ctx context.Context, query string, arg any) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: fetch %v error=%v", arg, err)
		return nil, err
	}
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.LineItems = items
	return o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, orderID string) ([]domain.OrderLineItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, product_name, quantity, unit_price_cents
FROM order_line_items
WHERE order_id = $1
ORDER BY product_id
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderLineItem
	for rows.Next() {
		var it domain.OrderLineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
