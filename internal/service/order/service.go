package order

import (
	"context"
	"fmt"
	"io"
	"log"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/domain"
)

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

type cacheStore interface {
	Evict(ctx context.Context, keys ...string) error
}

// Service applies the order state machine after creation. Ownership is
// checked before any transition: another user's order reads as not found.
type Service struct {
	repo   orderRepo
	cache  cacheStore
	logger *log.Logger
}

func New(repo orderRepo, cacheStore cacheStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: cacheStore, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.owned(ctx, userID, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cancel moves a Pending order to Cancelled. A second cancel on the same
// order fails with ErrInvalidOrderState: Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.OrderStatusCancelled)
}

func (s *Service) MarkShipped(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.OrderStatusShipped)
}

func (s *Service) MarkDelivered(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.OrderStatusDelivered)
}

func (s *Service) transition(ctx context.Context, userID, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	current, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, next, domain.ErrInvalidOrderState)
	}

	// Conditional on the status just checked: if a concurrent transition
	// lands in between, the repo reports ErrInvalidOrderState instead of
	// overwriting it.
	updated, err := s.repo.UpdateStatus(ctx, orderID, current.Status, next)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: %s %s -> %s", orderID, current.Status, next)

	if err := s.cache.Evict(ctx, cache.UserOrdersKey(userID)); err != nil {
		s.logger.Printf("order: evict user=%s: %v", userID, err)
	}
	return updated, nil
}

func (s *Service) owned(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		// Do not leak that the order exists.
		return nil, domain.ErrNotFound
	}
	return o, nil
}
