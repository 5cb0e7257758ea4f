package events

import "time"

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentConfirmed = "payment.confirmed"
	TopicOrderCancelled   = "order.cancelled"
)

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type OrderCreated struct {
	OrderID     string      `json:"order_id"`
	OwnerID     string      `json:"user_id"`
	TotalAmount int64       `json:"total_amount"`
	Items       []OrderLine `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type PaymentConfirmed struct {
	OrderID    string    `json:"order_id"`
	OwnerID    string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	PaymentKey string    `json:"payment_key"`
	Timestamp  time.Time `json:"timestamp"`
}

type OrderCancelled struct {
	OrderID   string    `json:"order_id"`
	OwnerID   string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
