package domain

import "time"

// OrderLineItem is an immutable copy of a basket line frozen at checkout
// time. Order totals are computed from these snapshots, never from live
// product prices.
type OrderLineItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"-"`
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"-"`
	LineItems       []OrderLineItem `json:"lineItems"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	Status          OrderStatus     `json:"status"`
	TotalCents      int64           `json:"totalCents"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Total sums the frozen line items.
func Total(items []OrderLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPriceCents * int64(it.Quantity)
	}
	return total
}
