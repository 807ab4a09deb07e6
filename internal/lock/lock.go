package lock

import (
	"context"
	"time"
)

// Kind names a lockable resource type. Typed keys keep unrelated resources
// from ever colliding on a shared string namespace.
type Kind string

const (
	KindProduct Kind = "product"
	KindBasket  Kind = "basket"
	KindOrder   Kind = "order"
)

// Key identifies one lockable resource instance.
type Key struct {
	Kind Kind
	ID   string
}

func ProductKey(productID string) Key { return Key{Kind: KindProduct, ID: productID} }
func BasketKey(userID string) Key     { return Key{Kind: KindBasket, ID: userID} }
func OrderKey(orderID string) Key     { return Key{Kind: KindOrder, ID: orderID} }

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// Lease is a time-bounded exclusive claim on a Key. It exists only for the
// duration of a critical section and is never persisted. A lease past
// ExpiresAt no longer protects anything: the key is claimable again.
type Lease struct {
	Key        Key
	Token      string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Coordinator grants at most one live lease per key at any instant.
//
// Acquire blocks until the key is free, the wait budget elapses
// (domain.ErrLockTimeout), or ctx is cancelled (ctx.Err(), holding nothing).
// Release frees the key for the given lease; releasing an expired or
// already-reclaimed lease is a logged no-op, never an error.
type Coordinator interface {
	Acquire(ctx context.Context, key Key, wait time.Duration) (*Lease, error)
	Release(ctx context.Context, lease *Lease) error
}
