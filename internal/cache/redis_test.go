package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return client
}

type cachedView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)
	defer client.Close()

	store := NewRedis(client, time.Minute, nil)
	key := UserBasketKey("cache-user-1")
	defer client.Del(ctx, key)

	var missed cachedView
	if err := store.Get(ctx, key, &missed); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := store.Set(ctx, key, cachedView{Name: "basket", Count: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got cachedView
	if err := store.Get(ctx, key, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "basket" || got.Count != 3 {
		t.Fatalf("unexpected value %+v", got)
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl < time.Minute || ttl > 2*time.Minute {
		t.Fatalf("expected jittered TTL above the base, got %v", ttl)
	}
}

func TestRedisStoreEvict(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)
	defer client.Close()

	store := NewRedis(client, time.Minute, nil)
	k1 := UserBasketKey("cache-user-2")
	k2 := UserOrdersKey("cache-user-2")

	if err := store.Set(ctx, k1, cachedView{Name: "a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, k2, cachedView{Name: "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := store.Evict(ctx, k1, k2); err != nil {
		t.Fatalf("Evict: %v", err)
	}

	var out cachedView
	if err := store.Get(ctx, k1, &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after evict, got %v", err)
	}
	if err := store.Get(ctx, k2, &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after evict, got %v", err)
	}

	// Evicting nothing is a no-op, not an error.
	if err := store.Evict(ctx); err != nil {
		t.Fatalf("empty Evict: %v", err)
	}
}
