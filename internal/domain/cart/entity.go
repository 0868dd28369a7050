// internal/domain/cart/entity.go
package cart

import "time"

// SchemaVersion tags the persisted cart blob so a future line-item schema
// change can be migrated instead of silently misparsed.
const SchemaVersion = 1

// LineItem represents one product-and-quantity entry in a shopper's cart.
// UnitPrice is the price at the time of adding, in paise.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
}

// Cart is the shopper's pre-purchase selection, ordered by insertion and
// keyed by ProductID (at most one line item per product).
type Cart struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// persistedCart is the serialized form written to the persistence layer on
// every mutation.
type persistedCart struct {
	Version   int        `json:"version"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity returns the sum of all line item quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// find returns the index of the line item for productID, or -1.
func (c *Cart) find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
