// internal/domain/pricing/engine_test.go
package pricing

import (
	"testing"

	"github.com/agrovolt/backend/internal/domain/cart"
)

var standardRules = Rules{
	FreeShippingThreshold: 100000, // ₹1000
	FlatShippingFee:       5000,   // ₹50
	TaxRate:               0.18,
}

func TestPriceAboveFreeShippingThreshold(t *testing.T) {
	// Two units at ₹600: items ₹1200 > ₹1000 threshold, shipping free.
	items := []cart.LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", UnitPrice: 60000, Quantity: 2},
	}

	got := Price(items, standardRules)
	want := Breakdown{
		ItemsPrice:    120000,
		ShippingPrice: 0,
		TaxPrice:      21600,
		TotalPrice:    141600,
	}
	if got != want {
		t.Errorf("Price() = %+v, want %+v", got, want)
	}
}

func TestPriceBelowFreeShippingThreshold(t *testing.T) {
	// Two units at ₹200: items ₹400 <= threshold, flat fee applies.
	items := []cart.LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", UnitPrice: 20000, Quantity: 2},
	}

	got := Price(items, standardRules)
	want := Breakdown{
		ItemsPrice:    40000,
		ShippingPrice: 5000,
		TaxPrice:      7200,
		TotalPrice:    52200,
	}
	if got != want {
		t.Errorf("Price() = %+v, want %+v", got, want)
	}
}

func TestPriceAtExactThresholdPaysShipping(t *testing.T) {
	// Free shipping requires strictly exceeding the threshold.
	items := []cart.LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", UnitPrice: 100000, Quantity: 1},
	}

	got := Price(items, standardRules)
	if got.ShippingPrice != standardRules.FlatShippingFee {
		t.Errorf("items total equal to threshold should pay flat fee, got %d", got.ShippingPrice)
	}
}

func TestPriceTotalIsExactSumOfComponents(t *testing.T) {
	carts := [][]cart.LineItem{
		nil,
		{{UnitPrice: 1, Quantity: 1}},
		{{UnitPrice: 33333, Quantity: 3}, {UnitPrice: 1, Quantity: 7}},
		{{UnitPrice: 99999, Quantity: 2}, {UnitPrice: 4999, Quantity: 13}},
	}

	for _, items := range carts {
		b := Price(items, standardRules)
		if b.TotalPrice != b.ItemsPrice+b.ShippingPrice+b.TaxPrice {
			t.Errorf("total %d != items %d + shipping %d + tax %d",
				b.TotalPrice, b.ItemsPrice, b.ShippingPrice, b.TaxPrice)
		}
	}
}

func TestPriceRespectsFlowSpecificThreshold(t *testing.T) {
	expressRules := Rules{
		FreeShippingThreshold: 50000, // ₹500
		FlatShippingFee:       5000,
		TaxRate:               0.18,
	}
	items := []cart.LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", UnitPrice: 30000, Quantity: 2},
	}

	// ₹600 of items: below the standard threshold but above the express one.
	if got := Price(items, standardRules); got.ShippingPrice == 0 {
		t.Error("standard flow should charge shipping for a ₹600 cart")
	}
	if got := Price(items, expressRules); got.ShippingPrice != 0 {
		t.Error("express flow should ship a ₹600 cart free")
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", UnitPrice: 12345, Quantity: 4},
		{ProductID: "b2b2b2b2b2b2b2b2b2b2b2b2", UnitPrice: 678, Quantity: 9},
	}

	first := Price(items, standardRules)
	second := Price(items, standardRules)
	if first != second {
		t.Errorf("pricing not deterministic: %+v != %+v", first, second)
	}
}

func TestPriceEmptyCart(t *testing.T) {
	b := Price(nil, standardRules)
	if b.ItemsPrice != 0 || b.TaxPrice != 0 {
		t.Errorf("empty cart should have zero items and tax, got %+v", b)
	}
	// An empty cart still quotes the flat fee; the checkout entry guard
	// refuses to start on an empty cart before pricing matters.
	if b.ShippingPrice != standardRules.FlatShippingFee {
		t.Errorf("expected flat fee for empty cart quote, got %d", b.ShippingPrice)
	}
}
