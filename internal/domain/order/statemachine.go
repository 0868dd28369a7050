// internal/domain/order/statemachine.go
package order

import "errors"

// Sentinel errors for rejected status transitions.
var (
	ErrUnknownStatus  = errors.New("unknown order status")
	ErrTerminalStatus = errors.New("order is in a terminal status")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// IsCancellable reports whether an order in status s may still be
// cancelled, by the shopper or by an operator.
func IsCancellable(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// IsTerminal reports whether s permits no further transition.
func IsTerminal(s OrderStatus) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Transition validates a status change from current to next. Terminal
// statuses never move, and cancellation is only reachable while the order
// is cancellable. Movement between the non-terminal fulfilment statuses is
// otherwise unconstrained so operators can correct mis-recorded progress;
// whether backward moves should be disallowed is an open product question.
func Transition(current, next OrderStatus) error {
	if !current.IsValid() || !next.IsValid() {
		return ErrUnknownStatus
	}
	if IsTerminal(current) {
		return ErrTerminalStatus
	}
	if next == OrderStatusCancelled && !IsCancellable(current) {
		return ErrNotCancellable
	}
	return nil
}
