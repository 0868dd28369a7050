// internal/domain/cart/validator_test.go
package cart

import "testing"

func TestValidateAndCleanDropsMalformedIDs(t *testing.T) {
	items := []LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", Name: "Soil Moisture Sensor", UnitPrice: 60000, Quantity: 2},
		{ProductID: "not-an-id", Name: "Ghost Product", UnitPrice: 100, Quantity: 1},
		{ProductID: "B2B2B2B2B2B2B2B2B2B2B2B2", Name: "pH Meter", UnitPrice: 20000, Quantity: 1},
	}

	cleaned, modified := ValidateAndClean(items, testLogger())
	if !modified {
		t.Error("expected modified = true when an item is dropped")
	}
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(cleaned))
	}
	for _, item := range cleaned {
		if item.ProductID == "not-an-id" {
			t.Error("malformed item survived cleaning")
		}
	}
}

func TestValidateAndCleanIsIdempotent(t *testing.T) {
	items := []LineItem{
		{ProductID: "a1a1a1a1a1a1a1a1a1a1a1a1", Quantity: 1},
		{ProductID: "too-short", Quantity: 1},
	}

	cleaned, modified := ValidateAndClean(items, testLogger())
	if !modified {
		t.Fatal("first pass should report a modification")
	}

	again, modified := ValidateAndClean(cleaned, testLogger())
	if modified {
		t.Error("second pass on cleaned output must report no modification")
	}
	if len(again) != len(cleaned) {
		t.Errorf("second pass changed item count: %d != %d", len(again), len(cleaned))
	}
}

func TestIsValidProductID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{"a1a1a1a1a1a1a1a1a1a1a1a1", true},
		{"ABCDEF0123456789abcdef01", true},
		{"a1a1a1a1a1a1a1a1a1a1a1", false},    // too short
		{"a1a1a1a1a1a1a1a1a1a1a1a1a1", false}, // too long
		{"g1a1a1a1a1a1a1a1a1a1a1a1", false},  // non-hex
		{"", false},
	}

	for _, tc := range cases {
		if got := IsValidProductID(tc.id); got != tc.valid {
			t.Errorf("IsValidProductID(%q) = %v, want %v", tc.id, got, tc.valid)
		}
	}
}
