package account

import (
	"context"

	"ecommerce-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}
