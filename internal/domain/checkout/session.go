// internal/domain/checkout/session.go
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/domain/pricing"
	"github.com/redis/go-redis/v9"
)

// sessionTTL bounds how long an unfinished checkout survives.
const sessionTTL = 24 * time.Hour

// Step is the checkout orchestration state. Each shopper's checkout is in
// exactly one step; illegal combinations (loading and succeeded at once)
// are unrepresentable.
type Step string

const (
	StepSelectingAddress Step = "selecting_address"
	StepSelectingPayment Step = "selecting_payment"
	StepReviewingOrder   Step = "reviewing_order"
	StepSubmitting       Step = "submitting"
	StepSucceeded        Step = "succeeded"
	StepFailed           Step = "failed"
)

// Session is one shopper's in-progress checkout. Its ID doubles as the
// order submission's idempotency key, so a duplicated submit of the same
// checkout can never create two orders.
type Session struct {
	ID              string                 `json:"id"`
	UserID          uint                   `json:"user_id"`
	Flow            string                 `json:"flow"`
	Step            Step                   `json:"step"`
	ShippingAddress *order.ShippingAddress `json:"shipping_address,omitempty"`
	PaymentMethod   order.PaymentMethod    `json:"payment_method,omitempty"`
	Breakdown       pricing.Breakdown      `json:"breakdown"`
	OrderID         uint                   `json:"order_id,omitempty"`
	FailureReason   string                 `json:"failure_reason,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// SessionStore persists checkout sessions across requests.
type SessionStore interface {
	Save(ctx context.Context, sess *Session) error
	Load(ctx context.Context, userID uint) (*Session, error)
	Delete(ctx context.Context, userID uint) error
}

// RedisSessionStore stores checkout sessions in Redis, one per shopper.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("checkout:session:%d", userID)
}

// Save stores the session with the checkout TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize checkout session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(sess.UserID), data, sessionTTL).Err()
}

// Load retrieves the shopper's session; (nil, nil) when none exists.
func (s *RedisSessionStore) Load(ctx context.Context, userID uint) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	return &sess, nil
}

// Delete removes the shopper's session.
func (s *RedisSessionStore) Delete(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, sessionKey(userID)).Err()
}
