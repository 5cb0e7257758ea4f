package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YAREUGO/shopmall/internal/order"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

type stubOrders struct {
	orders map[string]*order.Order
}

func (s *stubOrders) InsertHeader(ctx context.Context, o *order.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}
func (s *stubOrders) InsertItems(ctx context.Context, items []order.Item) error { return nil }
func (s *stubOrders) DeleteHeader(ctx context.Context, id string) error         { return nil }
func (s *stubOrders) GetItems(ctx context.Context, orderID string) ([]order.Item, error) {
	return nil, nil
}
func (s *stubOrders) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	return nil, nil
}

func (s *stubOrders) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok || o.OwnerID != ownerID {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, ownerID, id string, status order.Status) error {
	o, ok := s.orders[id]
	if !ok || o.OwnerID != ownerID {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

type stubCart struct {
	clearCalls int
	clearErr   error
}

func (s *stubCart) Clear(ctx context.Context, ownerID string) error {
	s.clearCalls++
	return s.clearErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingOrder(owner string, amount int64) *order.Order {
	return &order.Order{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		TotalAmount: amount,
		Status:      order.StatusPending,
	}
}

func newTestService(orders ...*order.Order) (*Service, *stubOrders, *stubCart) {
	repo := &stubOrders{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		cp := *o
		repo.orders[o.ID] = &cp
	}
	cartStub := &stubCart{}
	return NewService(repo, cartStub, nil, testLogger()), repo, cartStub
}

func TestConfirm_HappyPath(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, repo, cartStub := newTestService(o)

	got, err := svc.Confirm(context.Background(), "user-1", CallbackParams{
		OrderID: o.ID, Amount: 2000, PaymentKey: "pay-key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, o.ID, got)
	assert.Equal(t, order.StatusConfirmed, repo.orders[o.ID].Status)
	assert.Equal(t, 1, cartStub.clearCalls)
}

func TestConfirm_DuplicateCallbackIsRejected(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, repo, cartStub := newTestService(o)
	params := CallbackParams{OrderID: o.ID, Amount: 2000, PaymentKey: "pay-key-1"}

	_, err := svc.Confirm(context.Background(), "user-1", params)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "user-1", params)
	var processedErr *shoperr.AlreadyProcessedError
	require.ErrorAs(t, err, &processedErr)
	assert.Equal(t, "confirmed", processedErr.Status)

	assert.Equal(t, order.StatusConfirmed, repo.orders[o.ID].Status)
	assert.Equal(t, 1, cartStub.clearCalls, "the cart must not be cleared a second time")
}

func TestConfirm_AmountMismatchByOneUnit(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, repo, cartStub := newTestService(o)

	_, err := svc.Confirm(context.Background(), "user-1", CallbackParams{
		OrderID: o.ID, Amount: 1999, PaymentKey: "pay-key-1",
	})

	var mismatchErr *shoperr.AmountMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, int64(2000), mismatchErr.Expected)
	assert.Equal(t, int64(1999), mismatchErr.Got)

	assert.Equal(t, order.StatusPending, repo.orders[o.ID].Status, "status must stay pending")
	assert.Equal(t, 0, cartStub.clearCalls)
}

func TestConfirm_ForeignOrderIsNotFound(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, _, _ := newTestService(o)

	_, err := svc.Confirm(context.Background(), "user-2", CallbackParams{
		OrderID: o.ID, Amount: 2000, PaymentKey: "pay-key-1",
	})
	require.ErrorIs(t, err, shoperr.ErrNotFound)
}

func TestConfirm_CartClearFailureDoesNotRevertConfirmation(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, repo, cartStub := newTestService(o)
	cartStub.clearErr = errors.New("cart storage down")

	got, err := svc.Confirm(context.Background(), "user-1", CallbackParams{
		OrderID: o.ID, Amount: 2000, PaymentKey: "pay-key-1",
	})
	require.NoError(t, err, "cart clear is best-effort; confirmation must still succeed")
	assert.Equal(t, o.ID, got)
	assert.Equal(t, order.StatusConfirmed, repo.orders[o.ID].Status)
}

func TestCancel_PendingOrder(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	svc, repo, cartStub := newTestService(o)

	require.NoError(t, svc.Cancel(context.Background(), "user-1", o.ID))
	assert.Equal(t, order.StatusCancelled, repo.orders[o.ID].Status)
	assert.Equal(t, 0, cartStub.clearCalls, "cancel has no cart interaction")
}

func TestCancel_ConfirmedOrderIsRejected(t *testing.T) {
	o := pendingOrder("user-1", 2000)
	o.Status = order.StatusConfirmed
	svc, repo, _ := newTestService(o)

	err := svc.Cancel(context.Background(), "user-1", o.ID)
	var stateErr *shoperr.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "confirmed", stateErr.Status)
	assert.Equal(t, order.StatusConfirmed, repo.orders[o.ID].Status)
}

func TestCancel_AbsentOrderIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	require.ErrorIs(t, svc.Cancel(context.Background(), "user-1", uuid.NewString()), shoperr.ErrNotFound)
}
