package basket

import (
	"context"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/txn"
)

// Repository persists a user's unpurchased basket lines.
//
// MarkPurchased takes a Querier so the checkout can clear the basket inside
// the same transaction that inserts the order and decrements stock.
type Repository interface {
	GetActiveItems(ctx context.Context, userID string) ([]domain.BasketLine, error)
	AddItem(ctx context.Context, userID string, product domain.Product, quantity int) error
	ChangeQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Clear(ctx context.Context, userID string) error
	MarkPurchased(ctx context.Context, q txn.Querier, userID string) error
}
