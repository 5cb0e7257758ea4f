package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ShippingAddress is snapshotted onto the order at creation time.
type ShippingAddress struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail,omitempty"`
	PostalCode    string `json:"postal_code"`
}

// Order is immutable after creation except for its status. TotalAmount is
// fixed at the sum of item price*quantity when the order was built; later
// product price changes never touch it.
type Order struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"user_id"`
	TotalAmount     int64           `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	OrderNote       string          `json:"order_note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item denormalizes product name and price so the order survives product
// renames and deletions. Never updated or deleted independently of its order.
type Item struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// WithItems is the detail view returned to callers.
type WithItems struct {
	Order
	Items []Item `json:"items"`
}
