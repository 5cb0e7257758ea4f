package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YAREUGO/shopmall/internal/catalog"
)

// Every query is filtered by owner id; the storage layer enforces no row
// isolation of its own.
type Repository interface {
	// GetByOwner returns the owner's lines joined with their product, newest first.
	GetByOwner(ctx context.Context, ownerID string) ([]Line, error)
	// GetByOwnerAndProduct returns (nil, nil) when no line exists.
	GetByOwnerAndProduct(ctx context.Context, ownerID, productID string) (*Line, error)
	// GetByID is owner-scoped and returns (nil, nil) for absent or foreign lines.
	GetByID(ctx context.Context, ownerID, id string) (*Line, error)
	Insert(ctx context.Context, l *Line) error
	UpdateQuantity(ctx context.Context, ownerID, id string, quantity int) error
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const lineWithProduct = `
	ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
	p.id, p.name, p.description, p.price, p.category, p.stock_quantity, p.is_active, p.created_at, p.updated_at`

func (r *PGRepo) GetByOwner(ctx context.Context, ownerID string) ([]Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+lineWithProduct+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByOwnerAndProduct(ctx context.Context, ownerID, productID string) (*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var l Line
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`, ownerID, productID).Scan(&l.ID, &l.OwnerID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *PGRepo) GetByID(ctx context.Context, ownerID, id string) (*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT `+lineWithProduct+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.user_id = $2
	`, id, ownerID)
	l, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *PGRepo) Insert(ctx context.Context, l *Line) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
	`, l.ID, l.OwnerID, l.ProductID, l.Quantity)
	return err
}

func (r *PGRepo) UpdateQuantity(ctx context.Context, ownerID, id string, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, ownerID, quantity)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, ownerID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Deleting an absent or foreign line is a no-op by design.
	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	return err
}

func (r *PGRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, ownerID)
	return err
}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	var p catalog.Product
	if err := row.Scan(&l.ID, &l.OwnerID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.StockQty, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	l.Product = &p
	return &l, nil
}
