package order

import (
	"context"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/txn"
)

// Repository persists orders and their frozen line items.
//
// Create takes a Querier so the insert joins the checkout transaction.
// Status updates happen outside any checkout and go straight to the pool;
// UpdateStatus only applies when the row is still in the from state and
// returns ErrInvalidOrderState when a concurrent transition won.
type Repository interface {
	Create(ctx context.Context, q txn.Querier, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}
