// internal/domain/pricing/engine.go
package pricing

import (
	"math"

	"github.com/agrovolt/backend/internal/domain/cart"
)

// Rules parameterizes one checkout flow's pricing. Monetary amounts are in
// paise; TaxRate is a fraction of the items total (shipping is not taxed).
type Rules struct {
	FreeShippingThreshold int64   `json:"free_shipping_threshold"`
	FlatShippingFee       int64   `json:"flat_shipping_fee"`
	TaxRate               float64 `json:"tax_rate"`
}

// Breakdown is the itemized cost decomposition derived from a cart. It is
// never stored independently of the cart that produced it; recomputation
// with the same cart and rules always yields identical output.
type Breakdown struct {
	ItemsPrice    int64 `json:"items_price"`
	ShippingPrice int64 `json:"shipping_price"`
	TaxPrice      int64 `json:"tax_price"`
	TotalPrice    int64 `json:"total_price"`
}

// Price computes the breakdown for the given line items. The total is the
// exact sum of the three components: tax rounding happens once, when the
// tax component is produced, and feeds the total directly, so no
// independent rounding drift is possible.
func Price(items []cart.LineItem, rules Rules) Breakdown {
	var itemsPrice int64
	for _, item := range items {
		itemsPrice += item.UnitPrice * int64(item.Quantity)
	}

	var shippingPrice int64
	if itemsPrice <= rules.FreeShippingThreshold {
		shippingPrice = rules.FlatShippingFee
	}

	taxPrice := int64(math.Round(float64(itemsPrice) * rules.TaxRate))

	return Breakdown{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shippingPrice,
		TaxPrice:      taxPrice,
		TotalPrice:    itemsPrice + shippingPrice + taxPrice,
	}
}
