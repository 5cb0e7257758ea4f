package cart

import (
	"time"

	"github.com/YAREUGO/shopmall/internal/catalog"
)

// Line is one (owner, product) row. At most one line exists per pair; adding
// the same product again merges into the existing quantity.
type Line struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Product is the joined catalog row, present on reads.
	Product *catalog.Product `json:"product,omitempty"`
}

// Summary aggregates the cart for checkout display.
type Summary struct {
	TotalItems  int    `json:"total_items"`
	TotalAmount int64  `json:"total_amount"`
	Items       []Line `json:"items"`
}
