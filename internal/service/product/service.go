package product

import (
	"context"
	"errors"
	"io"
	"log"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/domain"
)

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}

// Service serves the read-only catalog. The product list is cache-through
// on the shared "products" key, which checkout evicts after every committed
// stock decrement.
type Service struct {
	repo   productRepo
	cache  cacheStore
	logger *log.Logger
}

func New(repo productRepo, cacheStore cacheStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: cacheStore, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	var cached []domain.Product
	err := s.cache.Get(ctx, cache.KeyProducts, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Printf("product: cache read: %v", err)
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.KeyProducts, products); err != nil {
		s.logger.Printf("product: cache write: %v", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}
