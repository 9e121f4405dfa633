package domain

import "time"

const EventOrderPlaced = "order.placed"

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// OrderPlacedEvent is the payload published after a checkout commits.
type OrderPlacedEvent struct {
	OrderID       string        `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	UserID        int64         `json:"userId"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	CustomerName  string        `json:"customerName,omitempty"`
	TotalAmount   string        `json:"totalAmount"`
	Currency      string        `json:"currency"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	ItemCount     int           `json:"itemCount"`
	PlacedAt      time.Time     `json:"placedAt"`
}
