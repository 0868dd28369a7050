// internal/domain/product/entity_test.go
package product

import (
	"regexp"
	"testing"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{24}$`)

func TestNewProductID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewProductID()
		if !hexID.MatchString(id) {
			t.Fatalf("NewProductID() = %q, want 24 lowercase hex characters", id)
		}
		if seen[id] {
			t.Fatalf("NewProductID() repeated %q", id)
		}
		seen[id] = true
	}
}
