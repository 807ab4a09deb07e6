package lock

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"ecommerce-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the stored token still belongs to
// the releasing lease, so an expired-and-reclaimed key is never freed from
// under its new holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCoordinator backs leases with redis SET NX PX, for deployments that
// run more than one api replica. Expiry is enforced by redis key TTL.
type RedisCoordinator struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
	logger *log.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCoordinator {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RedisCoordinator{
		client: client,
		ttl:    ttl,
		poll:   25 * time.Millisecond,
		logger: logger,
	}
}

func (c *RedisCoordinator) Acquire(ctx context.Context, key Key, wait time.Duration) (*Lease, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		now := time.Now()
		ok, err := c.client.SetNX(ctx, "lease:"+key.String(), token, c.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return &Lease{
				Key:        key,
				Token:      token,
				AcquiredAt: now,
				ExpiresAt:  now.Add(c.ttl),
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *RedisCoordinator) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	deleted, err := releaseScript.Run(ctx, c.client, []string{"lease:" + lease.Key.String()}, lease.Token).Int()
	if err != nil {
		return fmt.Errorf("lock: release %s: %w", lease.Key, err)
	}
	if deleted == 0 {
		c.logger.Printf("lock: stale release for %s ignored", lease.Key)
	}
	return nil
}
