// internal/domain/order/statemachine_test.go
package order

import (
	"errors"
	"testing"
)

func TestCancellationGate(t *testing.T) {
	cases := []struct {
		from OrderStatus
		ok   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusProcessing, true},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
		{OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		err := Transition(tc.from, OrderStatusCancelled)
		if tc.ok && err != nil {
			t.Errorf("Transition(%s, cancelled) = %v, want success", tc.from, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("Transition(%s, cancelled) succeeded, want rejection", tc.from)
		}
	}
}

func TestTerminalStatusesNeverMove(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}

	for _, terminal := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		for _, next := range all {
			if err := Transition(terminal, next); !errors.Is(err, ErrTerminalStatus) {
				t.Errorf("Transition(%s, %s) = %v, want ErrTerminalStatus", terminal, next, err)
			}
		}
	}
}

func TestAdminMovesBetweenNonTerminalStatuses(t *testing.T) {
	// The admin surface may move freely between non-terminal fulfilment
	// statuses, including backwards.
	cases := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusProcessing}, // backward correction
		{OrderStatusProcessing, OrderStatusPending}, // backward correction
		{OrderStatusPending, OrderStatusDelivered},  // skip ahead
	}

	for _, tc := range cases {
		if err := Transition(tc.from, tc.to); err != nil {
			t.Errorf("Transition(%s, %s) = %v, want success", tc.from, tc.to, err)
		}
	}
}

func TestCancelledIsTerminalAfterProcessing(t *testing.T) {
	// An order cancelled out of processing cannot be revived.
	if err := Transition(OrderStatusProcessing, OrderStatusCancelled); err != nil {
		t.Fatalf("cancelling a processing order should succeed, got %v", err)
	}
	if err := Transition(OrderStatusCancelled, OrderStatusProcessing); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("reviving a cancelled order should fail with ErrTerminalStatus, got %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	if err := Transition(OrderStatus("misspeled"), OrderStatusShipped); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus for bad current status, got %v", err)
	}
	if err := Transition(OrderStatusPending, OrderStatus("")); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus for bad next status, got %v", err)
	}
}

func TestPredicates(t *testing.T) {
	if !IsCancellable(OrderStatusPending) || !IsCancellable(OrderStatusProcessing) {
		t.Error("pending and processing must be cancellable")
	}
	if IsCancellable(OrderStatusShipped) || IsCancellable(OrderStatusDelivered) || IsCancellable(OrderStatusCancelled) {
		t.Error("shipped, delivered and cancelled must not be cancellable")
	}
	if !IsTerminal(OrderStatusDelivered) || !IsTerminal(OrderStatusCancelled) {
		t.Error("delivered and cancelled are terminal")
	}
	if IsTerminal(OrderStatusPending) || IsTerminal(OrderStatusProcessing) || IsTerminal(OrderStatusShipped) {
		t.Error("pending, processing and shipped are not terminal")
	}
}
