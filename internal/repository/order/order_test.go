package order

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/migrate"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_line_items, orders, basket_lines, products, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createAccount(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx,
		`INSERT INTO accounts (email, first_name, last_name) VALUES ($1, 'Test', 'User') RETURNING id::text`,
		email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

func buildOrder(userID string) *domain.Order {
	return &domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		LineItems: []domain.OrderLineItem{
			{ProductID: uuid.NewString(), ProductName: "Widget", Quantity: 2, UnitPriceCents: 1500},
			{ProductID: uuid.NewString(), ProductName: "Gadget", Quantity: 1, UnitPriceCents: 700},
		},
		ShippingAddress: domain.Address{Country: "SE", City: "Stockholm", StreetName: "Vasagatan 12", PostalCode: "11120"},
		BillingAddress:  domain.Address{Country: "SE", City: "Stockholm", StreetName: "Vasagatan 12", PostalCode: "11120"},
		Status:          domain.OrderStatusPending,
		TotalCents:      3700,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "order@example.com")
	repo := NewPostgres(pool, nil)

	order := buildOrder(userID)
	if err := repo.Create(ctx, pool, order); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt populated by insert")
	}

	fetched, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != domain.OrderStatusPending || fetched.TotalCents != 3700 {
		t.Fatalf("unexpected order %+v", fetched)
	}
	if len(fetched.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(fetched.LineItems))
	}
	if fetched.ShippingAddress.City != "Stockholm" {
		t.Fatalf("expected address round-trip, got %+v", fetched.ShippingAddress)
	}
}

func TestGetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "idem@example.com")
	repo := NewPostgres(pool, nil)

	order := buildOrder(userID)
	order.IdempotencyKey = "attempt-42"
	if err := repo.Create(ctx, pool, order); err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := repo.GetByIdempotencyKey(ctx, "attempt-42")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey: %v", err)
	}
	if fetched.ID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, fetched.ID)
	}

	if _, err := repo.GetByIdempotencyKey(ctx, "never-seen"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateIdempotencyKeyRejected(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "dup@example.com")
	repo := NewPostgres(pool, nil)

	first := buildOrder(userID)
	first.IdempotencyKey = "same-key"
	if err := repo.Create(ctx, pool, first); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	second := buildOrder(userID)
	second.IdempotencyKey = "same-key"
	if err := repo.Create(ctx, pool, second); err == nil {
		t.Fatalf("expected unique violation for duplicate idempotency key")
	}
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "list@example.com")
	otherID := createAccount(ctx, t, pool, "other@example.com")
	repo := NewPostgres(pool, nil)

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, pool, buildOrder(userID)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, pool, buildOrder(otherID)); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	orders, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	for _, o := range orders {
		if len(o.LineItems) != 2 {
			t.Fatalf("expected line items loaded, got %+v", o)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "status@example.com")
	repo := NewPostgres(pool, nil)

	order := buildOrder(userID)
	if err := repo.Create(ctx, pool, order); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusShipped)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("expected Shipped, got %s", updated.Status)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("expected updated_at to advance")
	}

	if _, err := repo.UpdateStatus(ctx, uuid.NewString(), domain.OrderStatusPending, domain.OrderStatusShipped); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusStaleStateLoses(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := createAccount(ctx, t, pool, "cas@example.com")
	repo := NewPostgres(pool, nil)

	order := buildOrder(userID)
	if err := repo.Create(ctx, pool, order); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// A second caller that also saw Pending must lose, not resurrect the
	// order into Shipped.
	if _, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusShipped); !errors.Is(err, domain.ErrInvalidOrderState) {
		t.Fatalf("expected ErrInvalidOrderState, got %v", err)
	}

	fetched, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected order to stay Cancelled, got %s", fetched.Status)
	}
}
