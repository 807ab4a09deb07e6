package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/lock"
	"ecommerce-backend/internal/payment"
	"ecommerce-backend/internal/txn"
	"github.com/google/uuid"
)

// DefaultLockWait bounds how long a checkout waits on a contended product.
const DefaultLockWait = 5 * time.Second

// Basket prices are snapshotted in the store currency.
const storeCurrency = "USD"

type basketRepo interface {
	GetActiveItems(ctx context.Context, userID string) ([]domain.BasketLine, error)
	MarkPurchased(ctx context.Context, q txn.Querier, userID string) error
}

type accountRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

type orderRepo interface {
	Create(ctx context.Context, q txn.Querier, order *domain.Order) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
}

type stockLedger interface {
	Reserve(ctx context.Context, q txn.Querier, productID string, quantity int) error
}

type cacheStore interface {
	Evict(ctx context.Context, keys ...string) error
}

// Service sequences the checkout pipeline: basket snapshot, payment capture,
// stock reservation under per-product leases, order persistence, basket
// clearing, one atomic commit, then cache eviction.
type Service struct {
	baskets  basketRepo
	accounts accountRepo
	orders   orderRepo
	ledger   stockLedger
	locks    lock.Coordinator
	tx       txn.Coordinator
	gateway  payment.Gateway
	cache    cacheStore
	lockWait time.Duration
	logger   *log.Logger
}

func New(
	baskets basketRepo,
	accounts accountRepo,
	orders orderRepo,
	ledger stockLedger,
	locks lock.Coordinator,
	tx txn.Coordinator,
	gateway payment.Gateway,
	cacheStore cacheStore,
	lockWait time.Duration,
	logger *log.Logger,
) *Service {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		baskets:  baskets,
		accounts: accounts,
		orders:   orders,
		ledger:   ledger,
		locks:    locks,
		tx:       tx,
		gateway:  gateway,
		cache:    cacheStore,
		lockWait: lockWait,
		logger:   logger,
	}
}

// Input is one checkout attempt. A repeated IdempotencyKey returns the
// already-created order instead of charging again.
type Input struct {
	Card            domain.PaymentCard
	AddressOverride *domain.Address
	IdempotencyKey  string
}

// Checkout converts the user's basket into a durable Pending order, or
// returns one of the typed failures without leaving partial state behind.
func (s *Service) Checkout(ctx context.Context, userID string, in Input) (*domain.Order, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			s.logger.Printf("checkout: replay key=%s order=%s", in.IdempotencyKey, existing.ID)
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("checkout: idempotency lookup: %w", err)
		}
	}

	items, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("checkout: resolve account: %w", err)
	}

	shipping := account.Address
	if in.AddressOverride != nil {
		shipping = *in.AddressOverride
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		LineItems:       items,
		ShippingAddress: shipping,
		BillingAddress:  shipping,
		Status:          domain.OrderStatusPending,
		TotalCents:      domain.Total(items),
		IdempotencyKey:  in.IdempotencyKey,
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: begin: %w", err)
	}

	res, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		OrderID:         order.ID,
		AmountCents:     order.TotalCents,
		Currency:        storeCurrency,
		Card:            in.Card,
		BuyerEmail:      account.Email,
		BuyerName:       account.FirstName + " " + account.LastName,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		LineItems:       items,
	})
	if err != nil {
		s.rollback(tx)
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if !res.Accepted {
		// Nothing was written yet, rollback alone is enough.
		s.rollback(tx)
		return nil, &domain.PaymentDeclinedError{Reason: res.DeclineReason}
	}

	// Per-product leases, acquired in ascending product order so concurrent
	// multi-item checkouts cannot deadlock. Taken only after capture, so no
	// lease is ever held across the gateway round trip; held through commit
	// so a racing checkout for the same product observes the committed
	// decrement. Timing out here means refunding the capture.
	leases, err := s.acquireLeases(ctx, items)
	if err != nil {
		s.rollback(tx)
		s.refund(res.Reference, order.TotalCents)
		return nil, err
	}
	defer s.releaseLeases(leases)

	for _, it := range items {
		if err := s.ledger.Reserve(ctx, tx, it.ProductID, it.Quantity); err != nil {
			s.rollback(tx)
			s.refund(res.Reference, order.TotalCents)
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, domain.ErrInsufficientStock
			}
			return nil, fmt.Errorf("checkout: reserve %s: %w", it.ProductID, err)
		}
	}

	if err := s.orders.Create(ctx, tx, order); err != nil {
		s.rollback(tx)
		s.refund(res.Reference, order.TotalCents)
		return nil, fmt.Errorf("checkout: persist order: %w", err)
	}

	if err := s.baskets.MarkPurchased(ctx, tx, userID); err != nil {
		s.rollback(tx)
		s.refund(res.Reference, order.TotalCents)
		return nil, fmt.Errorf("checkout: clear basket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.rollback(tx)
		s.refund(res.Reference, order.TotalCents)
		return nil, fmt.Errorf("checkout: commit: %w", err)
	}

	// Only after a committed transaction.
	if err := s.cache.Evict(context.WithoutCancel(ctx),
		cache.UserBasketKey(userID),
		cache.UserOrdersKey(userID),
		cache.KeyProducts,
	); err != nil {
		s.logger.Printf("checkout: cache eviction failed: %v", err)
	}

	s.logger.Printf("checkout: order=%s user=%s total=%d items=%d", order.ID, userID, order.TotalCents, len(items))
	return order, nil
}

// snapshot freezes the unpurchased basket lines into immutable order line
// items, sorted by product id, so later basket mutations cannot alter an
// in-flight checkout.
func (s *Service) snapshot(ctx context.Context, userID string) ([]domain.OrderLineItem, error) {
	lines, err := s.baskets.GetActiveItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load basket: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyBasket
	}

	items := make([]domain.OrderLineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderLineItem{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (s *Service) acquireLeases(ctx context.Context, items []domain.OrderLineItem) ([]*lock.Lease, error) {
	leases := make([]*lock.Lease, 0, len(items))
	for _, it := range items {
		lease, err := s.locks.Acquire(ctx, lock.ProductKey(it.ProductID), s.lockWait)
		if err != nil {
			s.releaseLeases(leases)
			if errors.Is(err, domain.ErrLockTimeout) {
				return nil, domain.ErrLockTimeout
			}
			return nil, fmt.Errorf("checkout: lease %s: %w", it.ProductID, err)
		}
		leases = append(leases, lease)
	}
	return leases, nil
}

func (s *Service) releaseLeases(leases []*lock.Lease) {
	for i := len(leases) - 1; i >= 0; i-- {
		if err := s.locks.Release(context.Background(), leases[i]); err != nil {
			s.logger.Printf("checkout: release %s: %v", leases[i].Key, err)
		}
	}
}

// rollback and refund run detached from the request context so a cancelled
// caller still gets its compensation.
func (s *Service) rollback(tx txn.Tx) {
	if err := tx.Rollback(context.Background()); err != nil {
		s.logger.Printf("checkout: rollback: %v", err)
	}
}

func (s *Service) refund(reference string, amountCents int64) {
	if err := s.gateway.Refund(context.Background(), reference, amountCents); err != nil {
		// The charge stands; this needs an operator.
		s.logger.Printf("checkout: COMPENSATION FAILED: refund ref=%s amount=%d: %v", reference, amountCents, err)
	}
}

