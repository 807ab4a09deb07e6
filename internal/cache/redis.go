package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches JSON-encoded views in redis. TTL gets a little jitter so
// hot keys do not all expire in the same instant.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
	logger  *log.Logger
}

func NewRedis(client *redis.Client, baseTTL time.Duration, logger *log.Logger) *RedisStore {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RedisStore{client: client, baseTTL: baseTTL, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := s.client.Set(ctx, key, data, s.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Evict(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Printf("cache: evict %v failed: %v", keys, err)
		return fmt.Errorf("cache evict: %w", err)
	}
	return nil
}
