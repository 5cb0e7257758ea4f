// Package payment reconciles provider callbacks against stored orders. The
// per-order state machine is pending -> confirmed on success and pending ->
// cancelled on abort; both are terminal for this service (fulfillment moves
// confirmed orders onward elsewhere).
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/YAREUGO/shopmall/internal/events"
	"github.com/YAREUGO/shopmall/internal/order"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

// CallbackParams is the inbound provider callback after the user completes
// payment externally. Amount is in integer minor currency units.
type CallbackParams struct {
	OrderID    string
	Amount     int64
	PaymentKey string
}

// CartClearer is the slice of the cart service used for the post-confirm
// cleanup.
type CartClearer interface {
	Clear(ctx context.Context, ownerID string) error
}

type Service struct {
	orders    order.Repository
	cart      CartClearer
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewService(orders order.Repository, cart CartClearer, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{orders: orders, cart: cart, publisher: publisher, logger: logger}
}

// Confirm validates the callback against the stored order and transitions it
// to confirmed exactly once. A duplicate callback for an already-confirmed
// order is rejected with AlreadyProcessedError, which is what makes the
// operation idempotent against the provider's at-least-once delivery.
func (s *Service) Confirm(ctx context.Context, ownerID string, params CallbackParams) (string, error) {
	if ownerID == "" {
		return "", shoperr.ErrUnauthenticated
	}

	o, err := s.orders.GetByOwnerAndID(ctx, ownerID, params.OrderID)
	if err != nil {
		return "", shoperr.Unknown(err)
	}
	if o == nil {
		return "", shoperr.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return "", &shoperr.AlreadyProcessedError{Status: string(o.Status)}
	}
	if o.TotalAmount != params.Amount {
		s.logger.Error("payment amount mismatch",
			"order_id", o.ID, "order_amount", o.TotalAmount, "payment_amount", params.Amount)
		return "", &shoperr.AmountMismatchError{Expected: o.TotalAmount, Got: params.Amount}
	}

	if err := s.orders.UpdateStatus(ctx, ownerID, o.ID, order.StatusConfirmed); err != nil {
		return "", shoperr.Unknown(err)
	}

	// Best-effort cleanup: the confirmation is authoritative and must not be
	// rolled back because a secondary step failed.
	if err := s.cart.Clear(ctx, ownerID); err != nil {
		s.logger.Warn("failed to clear cart after payment", "error", err, "owner_id", ownerID)
	}

	if s.publisher != nil {
		ev := events.PaymentConfirmed{
			OrderID:    o.ID,
			OwnerID:    ownerID,
			Amount:     params.Amount,
			PaymentKey: params.PaymentKey,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, events.TopicPaymentConfirmed, o.ID, ev); err != nil {
			s.logger.Warn("failed to publish payment confirmed event", "error", err, "order_id", o.ID)
		}
	}

	return o.ID, nil
}

// Cancel moves a pending order to cancelled. Orders in any other status are
// rejected so a paid order can never be cancelled through this path. The cart
// is untouched.
func (s *Service) Cancel(ctx context.Context, ownerID, orderID string) error {
	if ownerID == "" {
		return shoperr.ErrUnauthenticated
	}

	o, err := s.orders.GetByOwnerAndID(ctx, ownerID, orderID)
	if err != nil {
		return shoperr.Unknown(err)
	}
	if o == nil {
		return shoperr.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return &shoperr.InvalidStateError{Status: string(o.Status)}
	}

	if err := s.orders.UpdateStatus(ctx, ownerID, orderID, order.StatusCancelled); err != nil {
		return shoperr.Unknown(err)
	}

	if s.publisher != nil {
		ev := events.OrderCancelled{OrderID: orderID, OwnerID: ownerID, Timestamp: time.Now().UTC()}
		if err := s.publisher.Publish(ctx, events.TopicOrderCancelled, orderID, ev); err != nil {
			s.logger.Warn("failed to publish order cancelled event", "error", err, "order_id", orderID)
		}
	}
	return nil
}
