// Package shoperr defines the error taxonomy shared by the cart, order and
// payment services. Callers branch with errors.Is for the sentinel values and
// errors.As for the typed errors that carry data for user messaging.
package shoperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing and not-owned entities so that the
	// existence of another user's rows is never revealed.
	ErrNotFound = errors.New("not found")

	ErrUnauthenticated = errors.New("authentication required")

	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError reports input that fails shape or range checks.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StockError reports insufficient inventory. Stock carries the product's
// current stock so the UI can show "only N left".
type StockError struct {
	ProductName string
	Stock       int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (current stock: %d)", e.ProductName, e.Stock)
}

// AlreadyProcessedError rejects a duplicate payment callback for an order
// that already left the pending state.
type AlreadyProcessedError struct {
	Status string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("order already processed (status: %s)", e.Status)
}

// AmountMismatchError rejects a provider callback whose amount differs from
// the order's stored total. Comparison is exact, no tolerance.
type AmountMismatchError struct {
	Expected int64
	Got      int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount mismatch (expected %d, got %d)", e.Expected, e.Got)
}

// InvalidStateError rejects a status transition that is not allowed from the
// order's current status.
type InvalidStateError struct {
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation not allowed in current order status: %s", e.Status)
}

// OrderPersistenceError marks the compensated partial-write path during order
// creation: the header was rolled back after item insertion failed.
type OrderPersistenceError struct {
	Err error
}

func (e *OrderPersistenceError) Error() string {
	return fmt.Sprintf("order persistence failed: %v", e.Err)
}

func (e *OrderPersistenceError) Unwrap() error { return e.Err }

// UnknownError wraps an unexpected storage failure. The wrapped detail is for
// server-side logs only; boundaries surface a generic message.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string { return fmt.Sprintf("unexpected error: %v", e.Err) }

func (e *UnknownError) Unwrap() error { return e.Err }

// Unknown wraps err as an UnknownError, passing nil through.
func Unknown(err error) error {
	if err == nil {
		return nil
	}
	return &UnknownError{Err: err}
}
