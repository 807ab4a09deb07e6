package payment

import (
	"context"

	"ecommerce-backend/internal/domain"
)

// ChargeRequest carries everything the provider needs for one capture.
type ChargeRequest struct {
	OrderID         string
	AmountCents     int64
	Currency        string
	Card            domain.PaymentCard
	BuyerEmail      string
	BuyerName       string
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	LineItems       []domain.OrderLineItem
}

// ChargeResult reports the provider's decision. A decline is data, not a
// transport error: err is reserved for gateway-unreachable situations.
type ChargeResult struct {
	Accepted      bool
	Reference     string
	DeclineReason string
}

// Gateway is the external payment provider. Refund compensates an already
// captured charge when a later checkout step fails.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, reference string, amountCents int64) error
}
