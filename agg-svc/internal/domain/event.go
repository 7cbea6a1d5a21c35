package domain

import "time"

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	StatusCancelled = "cancelled"
)

// OrderEvent mirrors the message order-svc writes to the orders topic.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	RestaurantID   string    `json:"restaurant_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"created_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// Day is the UTC date the order counts towards.
func (e OrderEvent) Day() string {
	at := e.CreatedAt
	if at.IsZero() {
		at = e.Timestamp
	}
	return at.UTC().Format("2006-01-02")
}
