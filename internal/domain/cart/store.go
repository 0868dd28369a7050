// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// cartTTL bounds how long an abandoned cart survives in Redis.
const cartTTL = 30 * 24 * time.Hour

// Persistence is the storage the cart store writes through after every
// mutation. Implementations must treat the blob as opaque.
type Persistence interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// RedisPersistence stores cart blobs in Redis.
type RedisPersistence struct {
	client *redis.Client
}

// NewRedisPersistence creates a Redis-backed cart persistence.
func NewRedisPersistence(client *redis.Client) *RedisPersistence {
	return &RedisPersistence{client: client}
}

// Save stores the cart blob with the abandonment TTL.
func (p *RedisPersistence) Save(ctx context.Context, key string, data []byte) error {
	return p.client.Set(ctx, key, data, cartTTL).Err()
}

// Load retrieves the cart blob. A missing key returns (nil, nil).
func (p *RedisPersistence) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// Delete removes the cart blob.
func (p *RedisPersistence) Delete(ctx context.Context, key string) error {
	return p.client.Del(ctx, key).Err()
}

// Store holds one shopper's in-progress cart. Every mutating operation
// re-serializes the whole cart through the persistence layer in the same
// call, so no consumer observes a mutation without its persisted form.
// The store is injected into its consumers rather than reached globally.
type Store struct {
	key    string
	cart   Cart
	p      Persistence
	logger *logrus.Logger
}

// NewStore loads the shopper's persisted cart, starting empty when nothing
// is stored or when the stored blob is unparsable.
func NewStore(ctx context.Context, p Persistence, userID uint, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		key:    fmt.Sprintf("cart:user:%d", userID),
		p:      p,
		logger: logger,
	}

	data, err := p.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if data == nil {
		return s, nil
	}

	var persisted persistedCart
	if err := json.Unmarshal(data, &persisted); err != nil || persisted.Version != SchemaVersion {
		// Unparsable or foreign-schema data is treated as "no cart".
		s.logger.WithFields(logrus.Fields{
			"cart_key": s.key,
		}).Warn("Discarding unreadable persisted cart, starting empty")
		return s, nil
	}

	s.cart.Items = persisted.Items
	s.cart.UpdatedAt = persisted.UpdatedAt
	return s, nil
}

// Items returns a copy of the current line items.
func (s *Store) Items() []LineItem {
	items := make([]LineItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return items
}

// Cart returns a snapshot of the current cart.
func (s *Store) Cart() Cart {
	return Cart{Items: s.Items(), UpdatedAt: s.cart.UpdatedAt}
}

// Add merges quantity into an existing line item for the same product, or
// appends a new line item. Quantities below one are rejected.
func (s *Store) Add(ctx context.Context, item LineItem, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	if i := s.cart.find(item.ProductID); i >= 0 {
		s.cart.Items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		s.cart.Items = append(s.cart.Items, item)
	}

	return s.save(ctx)
}

// SetQuantity sets a line item's quantity exactly. A quantity of zero or
// below removes the line item.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	i := s.cart.find(productID)
	if i < 0 {
		return nil
	}

	if quantity <= 0 {
		s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
	} else {
		s.cart.Items[i].Quantity = quantity
	}

	return s.save(ctx)
}

// Remove deletes the line item for productID; no-op when absent.
func (s *Store) Remove(ctx context.Context, productID string) error {
	return s.SetQuantity(ctx, productID, 0)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.cart.Items = nil
	s.cart.UpdatedAt = time.Now().UTC()
	return s.p.Delete(ctx, s.key)
}

// Load replaces the entire cart wholesale.
func (s *Store) Load(ctx context.Context, items []LineItem) error {
	s.cart.Items = make([]LineItem, len(items))
	copy(s.cart.Items, items)
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	s.cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(persistedCart{
		Version:   SchemaVersion,
		Items:     s.cart.Items,
		UpdatedAt: s.cart.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}

	if err := s.p.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
