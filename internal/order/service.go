// Package order snapshots cart contents into immutable orders. The builder
// re-validates every line against the live product row just before insert and
// substitutes a compensating header delete for the missing multi-statement
// transaction at the storage boundary.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/YAREUGO/shopmall/internal/cart"
	"github.com/YAREUGO/shopmall/internal/catalog"
	"github.com/YAREUGO/shopmall/internal/events"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

// CartReader is the slice of the cart service the builder needs.
type CartReader interface {
	Items(ctx context.Context, ownerID string) ([]cart.Line, error)
}

type Service struct {
	repo      Repository
	products  catalog.Repository
	cart      CartReader
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, products catalog.Repository, cartReader CartReader, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, products: products, cart: cartReader, publisher: publisher, logger: logger}
}

// Create snapshots the owner's cart into a pending order and returns its id.
//
// Each line's product is re-fetched so the total uses the price and stock of
// this instant, not the cart's joined snapshot. A race remains between this
// check and the insert; it is accepted rather than locked away (the catalog
// is read-only for this service, so no version column is available to CAS on).
// The cart is deliberately not cleared here: clearing happens on payment
// confirmation, so an abandoned unpaid order does not lose the user's cart.
func (s *Service) Create(ctx context.Context, ownerID string, addr ShippingAddress, note string) (string, error) {
	if ownerID == "" {
		return "", shoperr.ErrUnauthenticated
	}

	lines, err := s.cart.Items(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", shoperr.ErrEmptyCart
	}

	var total int64
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		p, err := s.products.GetActiveByID(ctx, line.ProductID)
		if err != nil {
			return "", shoperr.Unknown(err)
		}
		if p == nil {
			name := line.ProductID
			if line.Product != nil {
				name = line.Product.Name
			}
			return "", fmt.Errorf("product %q: %w", name, shoperr.ErrNotFound)
		}
		if p.StockQty < line.Quantity {
			return "", &shoperr.StockError{ProductName: p.Name, Stock: p.StockQty}
		}

		total += int64(line.Quantity) * p.Price
		items = append(items, Item{
			ID:          uuid.NewString(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       p.Price,
		})
	}

	o := &Order{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: addr,
		OrderNote:       note,
	}
	if err := s.repo.InsertHeader(ctx, o); err != nil {
		return "", shoperr.Unknown(err)
	}

	for i := range items {
		items[i].OrderID = o.ID
	}
	if err := s.repo.InsertItems(ctx, items); err != nil {
		// Compensating delete: an order without items must not survive.
		if delErr := s.repo.DeleteHeader(ctx, o.ID); delErr != nil {
			s.logger.Error("failed to roll back order header", "error", delErr, "order_id", o.ID)
		}
		return "", &shoperr.OrderPersistenceError{Err: err}
	}

	s.publishCreated(ctx, o, items)
	return o.ID, nil
}

// ListByOwner returns the owner's orders, newest first. An absent owner gets
// an empty list.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	if ownerID == "" {
		return []Order{}, nil
	}
	out, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, shoperr.Unknown(err)
	}
	if out == nil {
		out = []Order{}
	}
	return out, nil
}

// GetByID returns the owner's order with its items. Foreign and absent orders
// are indistinguishable.
func (s *Service) GetByID(ctx context.Context, ownerID, id string) (*WithItems, error) {
	if ownerID == "" {
		return nil, shoperr.ErrUnauthenticated
	}
	o, err := s.repo.GetByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, shoperr.Unknown(err)
	}
	if o == nil {
		return nil, shoperr.ErrNotFound
	}
	items, err := s.repo.GetItems(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch order items", "error", err, "order_id", id)
		items = []Item{}
	}
	if items == nil {
		items = []Item{}
	}
	return &WithItems{Order: *o, Items: items}, nil
}

func (s *Service) publishCreated(ctx context.Context, o *Order, items []Item) {
	if s.publisher == nil {
		return
	}
	ev := events.OrderCreated{
		OrderID:     o.ID,
		OwnerID:     o.OwnerID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, events.OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	if err := s.publisher.Publish(ctx, events.TopicOrderCreated, o.ID, ev); err != nil {
		s.logger.Warn("failed to publish order created event", "error", err, "order_id", o.ID)
	}
}
