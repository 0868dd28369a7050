// internal/domain/order/entity_test.go
package order

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumber(t *testing.T) {
	got := GenerateOrderNumber(42)
	want := fmt.Sprintf("ORD-%s-00042", time.Now().Format("20060102"))
	if got != want {
		t.Errorf("GenerateOrderNumber(42) = %q, want %q", got, want)
	}

	// IDs wider than the pad keep their full width.
	wide := GenerateOrderNumber(1234567)
	if !strings.HasSuffix(wide, "-1234567") {
		t.Errorf("GenerateOrderNumber(1234567) = %q", wide)
	}
}

func TestOrderStatusIsValid(t *testing.T) {
	for _, status := range []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	} {
		if !status.IsValid() {
			t.Errorf("%s should be valid", status)
		}
	}
	if OrderStatus("refunded").IsValid() {
		t.Error("refunded is not a recognised status")
	}
}

func TestPaymentMethodIsValid(t *testing.T) {
	if !PaymentMethodCOD.IsValid() || !PaymentMethodRazorpay.IsValid() {
		t.Error("supported methods should be valid")
	}
	if PaymentMethod("cheque").IsValid() {
		t.Error("cheque is not a supported method")
	}
}

func TestCanBeCancelled(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusProcessing, true},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
		{OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		o := Order{Status: tc.status}
		if got := o.CanBeCancelled(); got != tc.want {
			t.Errorf("CanBeCancelled(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
