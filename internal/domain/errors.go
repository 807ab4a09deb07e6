package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrEmptyBasket indicates a checkout was attempted on a basket with no
	// unpurchased lines.
	ErrEmptyBasket = errors.New("basket is empty")

	// ErrAccountNotFound indicates the buyer's profile could not be resolved.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientStock indicates a reservation requested more units than
	// the product has in stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrLockTimeout indicates a resource lease could not be acquired within
	// the caller's wait budget. Callers may retry with backoff.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrInvalidOrderState indicates a status transition the order's state
	// machine does not permit.
	ErrInvalidOrderState = errors.New("invalid order state")

	// ErrNoActiveTransaction indicates Commit was called on a transaction that
	// was already committed or rolled back.
	ErrNoActiveTransaction = errors.New("no active transaction")

	// ErrPaymentUnavailable indicates the payment gateway could not be
	// reached. Distinct from a decline: no charge reference exists.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
)

// PaymentDeclinedError carries the gateway's decline reason back to the
// caller. Matched with errors.As.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Reason == "" {
		return "payment declined"
	}
	return fmt.Sprintf("payment declined: %s", e.Reason)
}
