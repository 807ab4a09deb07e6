package domain

import "time"

// BasketLine is one product/quantity entry in a user's unpurchased basket.
// Name and unit price are snapshotted when the line is added so a later
// product edit does not change an existing basket.
type BasketLine struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	Purchased      bool      `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TotalCents is the line subtotal at the snapshotted unit price.
func (l BasketLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}
