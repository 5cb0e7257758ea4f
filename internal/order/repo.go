package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

// InsertHeader, InsertItems and DeleteHeader are deliberately separate
// operations: the storage boundary is assumed not to provide multi-statement
// transactions, so the service layer performs a compensating delete of the
// header when item insertion fails.
type Repository interface {
	InsertHeader(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []Item) error
	DeleteHeader(ctx context.Context, id string) error
	// GetByOwnerAndID returns (nil, nil) for absent or foreign orders.
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) InsertHeader(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, shipping_address, order_note, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NOW(),NOW())
	`, o.ID, o.OwnerID, o.TotalAmount, o.Status, addr, o.OrderNote)
	return err
}

func (r *PGRepo) InsertItems(ctx context.Context, items []Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, it := range items {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW())
		`, it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) DeleteHeader(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return err
}

func (r *PGRepo) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	var addr []byte
	var note *string
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, order_note, created_at, updated_at
		FROM orders WHERE id=$1 AND user_id=$2
	`, id, ownerID).Scan(&o.ID, &o.OwnerID, &o.TotalAmount, &o.Status, &addr, &note, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if note != nil {
		o.OrderNote = *note
	}
	return &o, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, order_note, created_at, updated_at
		FROM orders WHERE user_id=$1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var addr []byte
		var note *string
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.TotalAmount, &o.Status, &addr, &note, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if len(addr) > 0 {
			if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
				return nil, err
			}
		}
		if note != nil {
			o.OrderNote = *note
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, ownerID, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, ownerID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
