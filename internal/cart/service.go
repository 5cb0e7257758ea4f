// Package cart keeps the per-user mapping of product to desired quantity.
// Stock checks always compare against the live product row; the remaining gap
// between check and order creation is closed (mostly) by the order builder's
// re-validation.
package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/YAREUGO/shopmall/internal/catalog"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

type Service struct {
	repo     Repository
	products catalog.Repository
	logger   *slog.Logger
}

func NewService(repo Repository, products catalog.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, products: products, logger: logger}
}

// AddItem inserts a line for (owner, product) or merges quantity into the
// existing one. The combined quantity is re-validated against current stock
// before any write; on failure the existing line is left untouched.
func (s *Service) AddItem(ctx context.Context, ownerID, productID string, quantity int) error {
	if ownerID == "" {
		return shoperr.ErrUnauthenticated
	}
	if quantity <= 0 {
		return &shoperr.ValidationError{Reason: "quantity must be at least 1"}
	}

	p, err := s.products.GetActiveByID(ctx, productID)
	if err != nil {
		return shoperr.Unknown(err)
	}
	if p == nil {
		return fmt.Errorf("product %s: %w", productID, shoperr.ErrNotFound)
	}
	if p.StockQty < quantity {
		return &shoperr.StockError{ProductName: p.Name, Stock: p.StockQty}
	}

	existing, err := s.repo.GetByOwnerAndProduct(ctx, ownerID, productID)
	if err != nil {
		return shoperr.Unknown(err)
	}

	if existing != nil {
		merged := existing.Quantity + quantity
		if p.StockQty < merged {
			return &shoperr.StockError{ProductName: p.Name, Stock: p.StockQty}
		}
		if err := s.repo.UpdateQuantity(ctx, ownerID, existing.ID, merged); err != nil {
			return shoperr.Unknown(err)
		}
		return nil
	}

	line := &Line{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.Insert(ctx, line); err != nil {
		return shoperr.Unknown(err)
	}
	return nil
}

// SetQuantity replaces the quantity of an owned line after validating it
// against the line's product's current stock.
func (s *Service) SetQuantity(ctx context.Context, ownerID, lineID string, quantity int) error {
	if ownerID == "" {
		return shoperr.ErrUnauthenticated
	}
	if quantity <= 0 {
		return &shoperr.ValidationError{Reason: "quantity must be at least 1"}
	}

	line, err := s.repo.GetByID(ctx, ownerID, lineID)
	if err != nil {
		return shoperr.Unknown(err)
	}
	if line == nil {
		return shoperr.ErrNotFound
	}
	if line.Product.StockQty < quantity {
		return &shoperr.StockError{ProductName: line.Product.Name, Stock: line.Product.StockQty}
	}
	if err := s.repo.UpdateQuantity(ctx, ownerID, lineID, quantity); err != nil {
		return shoperr.Unknown(err)
	}
	return nil
}

// RemoveItem deletes an owned line. Absent or foreign ids are a silent no-op.
func (s *Service) RemoveItem(ctx context.Context, ownerID, lineID string) error {
	if ownerID == "" {
		return shoperr.ErrUnauthenticated
	}
	if err := s.repo.Delete(ctx, ownerID, lineID); err != nil {
		return shoperr.Unknown(err)
	}
	return nil
}

// Clear deletes all of the owner's lines. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return shoperr.ErrUnauthenticated
	}
	if err := s.repo.DeleteByOwner(ctx, ownerID); err != nil {
		return shoperr.Unknown(err)
	}
	return nil
}

// Items returns the owner's lines joined with their products, newest first.
// An absent owner gets an empty list, not an error.
func (s *Service) Items(ctx context.Context, ownerID string) ([]Line, error) {
	if ownerID == "" {
		return []Line{}, nil
	}
	lines, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to fetch cart items", "error", err, "owner_id", ownerID)
		return nil, shoperr.Unknown(err)
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

// Summary derives item and amount totals from Items.
func (s *Service) Summary(ctx context.Context, ownerID string) (*Summary, error) {
	lines, err := s.Items(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Items: lines}
	for _, l := range lines {
		sum.TotalItems += l.Quantity
		if l.Product != nil {
			sum.TotalAmount += int64(l.Quantity) * l.Product.Price
		}
	}
	return sum, nil
}
