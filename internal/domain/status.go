package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
)

// validNext is the full transition table. Cancelled and Delivered are
// terminal: nothing transitions out of them.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusCancelled: true, OrderStatusShipped: true},
	OrderStatusShipped:   {OrderStatusDelivered: true},
	OrderStatusCancelled: {},
	OrderStatusDelivered: {},
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return validNext[s][next]
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return len(validNext[s]) == 0
}
