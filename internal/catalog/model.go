package catalog

import "time"

// Product is the catalog row. Price is in integer minor currency units and,
// together with StockQuantity, is mutated by an external inventory process;
// this service only reads it.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Category    *string   `json:"category,omitempty"`
	StockQty    int       `json:"stock_quantity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
