// internal/domain/cart/validator.go
package cart

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// productIDShape is the canonical 24-character hexadecimal product
// identifier used throughout the catalog.
var productIDShape = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsValidProductID reports whether id matches the canonical identifier shape.
func IsValidProductID(id string) bool {
	return productIDShape.MatchString(id)
}

// ValidateAndClean drops line items whose product identifier does not match
// the canonical shape. A cart can carry such items when it was populated
// before a product was deleted or under a previous schema; checkout must
// never submit malformed product references. Dropped items are logged, not
// surfaced as a hard error, and the second return reports whether anything
// was removed so the caller can ask the shopper to review.
func ValidateAndClean(items []LineItem, logger *logrus.Logger) ([]LineItem, bool) {
	cleaned := make([]LineItem, 0, len(items))
	modified := false

	for _, item := range items {
		if !IsValidProductID(item.ProductID) {
			modified = true
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"product_id": item.ProductID,
					"name":       item.Name,
				}).Warn("Dropping cart line item with malformed product identifier")
			}
			continue
		}
		cleaned = append(cleaned, item)
	}

	return cleaned, modified
}
