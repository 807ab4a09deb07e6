package basket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/lock"
)

// DefaultLockWait bounds how long a basket command waits for the user's own
// basket lease. Contention here only happens on rapid double-submits.
const DefaultLockWait = 2 * time.Second

type basketRepo interface {
	GetActiveItems(ctx context.Context, userID string) ([]domain.BasketLine, error)
	AddItem(ctx context.Context, userID string, product domain.Product, quantity int) error
	ChangeQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Clear(ctx context.Context, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type cacheStore interface {
	Evict(ctx context.Context, keys ...string) error
}

// Service handles basket commands. Every mutation runs under the
// basket:<userId> lease so two rapid submits from the same user cannot lose
// each other's update.
type Service struct {
	repo     basketRepo
	products productRepo
	locks    lock.Coordinator
	cache    cacheStore
	lockWait time.Duration
	logger   *log.Logger
}

func New(repo basketRepo, products productRepo, locks lock.Coordinator, cacheStore cacheStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:     repo,
		products: products,
		locks:    locks,
		cache:    cacheStore,
		lockWait: DefaultLockWait,
		logger:   logger,
	}
}

func (s *Service) Get(ctx context.Context, userID string) ([]domain.BasketLine, error) {
	return s.repo.GetActiveItems(ctx, userID)
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return err
	}
	if product.StockQuantity < quantity {
		return domain.ErrInsufficientStock
	}

	return s.withBasketLease(ctx, userID, func() error {
		return s.repo.AddItem(ctx, userID, *product, quantity)
	})
}

func (s *Service) ChangeQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	return s.withBasketLease(ctx, userID, func() error {
		return s.repo.ChangeQuantity(ctx, userID, lineID, quantity)
	})
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.withBasketLease(ctx, userID, func() error {
		return s.repo.Clear(ctx, userID)
	})
}

func (s *Service) withBasketLease(ctx context.Context, userID string, fn func() error) error {
	lease, err := s.locks.Acquire(ctx, lock.BasketKey(userID), s.lockWait)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.locks.Release(context.Background(), lease); err != nil {
			s.logger.Printf("basket: release lease user=%s: %v", userID, err)
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	if err := s.cache.Evict(ctx, cache.UserBasketKey(userID)); err != nil {
		s.logger.Printf("basket: evict user=%s: %v", userID, err)
	}
	return nil
}
