package cache

import (
	"context"
	"errors"
	"fmt"
)

// Cached view keys. One key per user-scoped view, one shared key for the
// product list.
const (
	keyUserBasket = "user-basket:%s"
	keyUserOrders = "user-orders:%s"
	KeyProducts   = "products"
)

func UserBasketKey(userID string) string { return fmt.Sprintf(keyUserBasket, userID) }
func UserOrdersKey(userID string) string { return fmt.Sprintf(keyUserOrders, userID) }

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is the cached-view backend. Evict is best-effort: a failed eviction
// is logged by implementations, the stale entry expires by TTL anyway.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Evict(ctx context.Context, keys ...string) error
}
