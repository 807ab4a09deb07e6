package lock

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"ecommerce-backend/internal/domain"
	"github.com/google/uuid"
)

// DefaultLeaseTTL bounds how long a crashed holder can wedge a key.
const DefaultLeaseTTL = 30 * time.Second

type keyState struct {
	token     string
	expiresAt time.Time
	freed     chan struct{} // closed exactly once, on release or takeover
}

// MemoryCoordinator is the in-process Coordinator used by a single-replica
// deployment. Contention is per key: disjoint keys never touch each other's
// wait channels.
type MemoryCoordinator struct {
	mu     sync.Mutex
	keys   map[string]*keyState
	ttl    time.Duration
	logger *log.Logger
}

func NewMemory(ttl time.Duration, logger *log.Logger) *MemoryCoordinator {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &MemoryCoordinator{
		keys:   make(map[string]*keyState),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *MemoryCoordinator) Acquire(ctx context.Context, key Key, wait time.Duration) (*Lease, error) {
	deadline := time.Now().Add(wait)
	for {
		c.mu.Lock()
		st, held := c.keys[key.String()]
		now := time.Now()
		if !held || now.After(st.expiresAt) {
			if held {
				// Holder expired without releasing. Take the key over; the
				// stale holder's Release becomes a no-op.
				c.logger.Printf("lock: lease on %s expired, taking over", key)
				close(st.freed)
			}
			lease := &Lease{
				Key:        key,
				Token:      uuid.NewString(),
				AcquiredAt: now,
				ExpiresAt:  now.Add(c.ttl),
			}
			c.keys[key.String()] = &keyState{
				token:     lease.Token,
				expiresAt: lease.ExpiresAt,
				freed:     make(chan struct{}),
			}
			c.mu.Unlock()
			return lease, nil
		}
		freed := st.freed
		holderExpiry := st.expiresAt
		c.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, domain.ErrLockTimeout
		}

		expireTimer := time.NewTimer(time.Until(holderExpiry))
		waitTimer := time.NewTimer(remaining)
		select {
		case <-freed:
		case <-expireTimer.C:
		case <-waitTimer.C:
			expireTimer.Stop()
			return nil, domain.ErrLockTimeout
		case <-ctx.Done():
			expireTimer.Stop()
			waitTimer.Stop()
			return nil, ctx.Err()
		}
		expireTimer.Stop()
		waitTimer.Stop()
	}
}

func (c *MemoryCoordinator) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st, held := c.keys[lease.Key.String()]
	if !held || st.token != lease.Token {
		// Expired and reclaimed by someone else, or double release.
		c.logger.Printf("lock: stale release for %s ignored", lease.Key)
		return nil
	}
	delete(c.keys, lease.Key.String())
	close(st.freed)
	return nil
}
