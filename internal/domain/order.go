package domain

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransitionTo reports whether the status may move to next. The fulfilment
// sequence is monotonic; cancelled is reachable from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered || next == StatusCancelled
	default:
		// delivered and cancelled are terminal
		return false
	}
}

type Order struct {
	ID             string      `json:"id"`
	Items          []CartLine  `json:"items"`
	TotalCents     int64       `json:"totalCents"`
	CustomerEmail  string      `json:"customerEmail"`
	Status         OrderStatus `json:"status"`
	PaymentID      string      `json:"paymentId,omitempty"`
	GatewayOrderID string      `json:"gatewayOrderId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// OrderDraft is the pre-persistence order. Items are a snapshot taken at
// checkout time, never a live reference to the cart.
type OrderDraft struct {
	Items          []CartLine
	TotalCents     int64
	CustomerEmail  string
	PaymentID      string
	GatewayOrderID string
}
