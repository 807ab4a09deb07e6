package stock

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/lock"
	"ecommerce-backend/internal/migrate"
	"ecommerce-backend/internal/txn"
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

func createProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sku string, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx,
		`INSERT INTO products (sku, name, price_cents, currency, stock_quantity)
		 VALUES ($1, $2, 1000, 'USD', $3) RETURNING id::text`,
		sku, "Product "+sku, stock,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func stockOf(ctx context.Context, t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return n
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	if _, err := pool.Exec(ctx, `TRUNCATE order_line_items, orders, basket_lines, products, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ledger := NewLedger(nil)
	productID := createProduct(ctx, t, pool, "SKU-LEDGER-1", 10)

	if err := ledger.Reserve(ctx, pool, productID, 4); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := stockOf(ctx, t, pool, productID); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}

	if err := ledger.Reserve(ctx, pool, productID, 7); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := stockOf(ctx, t, pool, productID); got != 6 {
		t.Fatalf("rejected reserve must not change stock, got %d", got)
	}

	if err := ledger.Reserve(ctx, pool, "3f3c9a1e-0000-0000-0000-000000000000", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReserveInsideRolledBackTx(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	if _, err := pool.Exec(ctx, `TRUNCATE order_line_items, orders, basket_lines, products, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ledger := NewLedger(nil)
	productID := createProduct(ctx, t, pool, "SKU-LEDGER-2", 10)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ledger.Reserve(ctx, tx, productID, 5); err != nil {
		t.Fatalf("Reserve in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if got := stockOf(ctx, t, pool, productID); got != 10 {
		t.Fatalf("expected rollback to restore stock 10, got %d", got)
	}
}

// Two checkouts race for the last unit through the real lease coordinator
// and transaction coordinator. Exactly one may win, and stock ends at zero,
// never below.
func TestConcurrentReserveLastUnit(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	if _, err := pool.Exec(ctx, `TRUNCATE order_line_items, orders, basket_lines, products, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ledger := NewLedger(nil)
	locks := lock.NewMemory(30*time.Second, nil)
	coord := txn.NewPgx(pool, nil)
	productID := createProduct(ctx, t, pool, "SKU-LEDGER-RACE", 1)

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			lease, err := locks.Acquire(ctx, lock.ProductKey(productID), 5*time.Second)
			if err != nil {
				errs <- err
				return
			}
			// Held through commit, as the checkout pipeline holds it.
			defer locks.Release(context.Background(), lease)

			tx, err := coord.Begin(ctx)
			if err != nil {
				errs <- err
				return
			}
			if err := ledger.Reserve(ctx, tx, productID, 1); err != nil {
				_ = tx.Rollback(ctx)
				errs <- err
				return
			}
			errs <- tx.Commit(ctx)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var wins, rejected int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || rejected != 1 {
		t.Fatalf("expected one winner and one rejection, got %d/%d", wins, rejected)
	}
	if got := stockOf(ctx, t, pool, productID); got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
}

func TestReplenish(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	if _, err := pool.Exec(ctx, `TRUNCATE order_line_items, orders, basket_lines, products, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ledger := NewLedger(nil)
	productID := createProduct(ctx, t, pool, "SKU-LEDGER-3", 2)

	if err := ledger.Replenish(ctx, pool, productID, 8); err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	if got := stockOf(ctx, t, pool, productID); got != 10 {
		t.Fatalf("expected stock 10, got %d", got)
	}

	if err := ledger.Replenish(ctx, pool, "3f3c9a1e-0000-0000-0000-000000000000", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
