// internal/domain/checkout/orchestrator.go
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/cart"
	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/domain/pricing"
	"github.com/agrovolt/backend/internal/domain/user"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSession means no checkout is in progress for the shopper.
	ErrNoSession = errors.New("no checkout session in progress")
	// ErrEmptyCart rejects starting or submitting a checkout with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAddressRequired rejects advancing past payment selection without a shipping address.
	ErrAddressRequired = errors.New("shipping address must be selected first")
	// ErrInvalidPaymentMethod rejects unknown payment methods.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrCartChanged means the cart was revised during checkout; the shopper
	// must review the corrected cart before submitting again.
	ErrCartChanged = errors.New("cart contents changed, please review your order")
	// ErrSubmitInFlight rejects a duplicate submit while one is already running.
	ErrSubmitInFlight = errors.New("order submission already in progress")
	// ErrCheckoutFinished rejects mutating a checkout that already succeeded.
	ErrCheckoutFinished = errors.New("checkout already completed")
)

// submitFallbackReason is surfaced when order placement fails without a
// usable message.
const submitFallbackReason = "order could not be placed, please try again"

// submitRetryAfter is how long a session may sit in Submitting before it
// is treated as an orphan of a crashed submit and retry is allowed. The
// order idempotency key turns such a retry into a replay, not a duplicate.
const submitRetryAfter = 2 * time.Minute

// AddressBook resolves a shopper's saved shipping address. Ownership is
// enforced by the lookup itself.
type AddressBook interface {
	GetAddress(userID, addressID uint) (*user.Address, error)
}

// OrderPlacer turns a finished checkout into a persisted order.
type OrderPlacer interface {
	Create(userID uint, sub *order.Submission) (*order.Order, error)
}

// Orchestrator drives a shopper's checkout through its steps: address,
// payment, review, submit. All pricing shown to the shopper is computed
// here from config, never trusted from the client.
type Orchestrator struct {
	sessions  SessionStore
	addresses AddressBook
	orders    OrderPlacer
	pricing   config.PricingConfig
	logger    *logrus.Logger
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(sessions SessionStore, addresses AddressBook, orders OrderPlacer, pricingCfg config.PricingConfig, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		addresses: addresses,
		orders:    orders,
		pricing:   pricingCfg,
		logger:    logger,
	}
}

func (o *Orchestrator) rulesFor(flow string) pricing.Rules {
	rule := o.pricing.Standard
	if flow == "express" {
		rule = o.pricing.Express
	}
	return pricing.Rules{
		FreeShippingThreshold: rule.FreeShippingThreshold,
		FlatShippingFee:       rule.FlatShippingFee,
		TaxRate:               o.pricing.TaxRate,
	}
}

// Begin starts (or restarts) a checkout for the shopper's current cart.
// Malformed cart lines are dropped before pricing.
func (o *Orchestrator) Begin(ctx context.Context, userID uint, flow string, store *cart.Store) (*Session, error) {
	items, modified := cart.ValidateAndClean(store.Items(), o.logger)
	if modified {
		if err := store.Load(ctx, items); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if flow != "express" {
		flow = "standard"
	}

	now := time.Now()
	sess := &Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		Flow:          flow,
		Step:          StepSelectingAddress,
		PaymentMethod: order.PaymentMethodCOD,
		Breakdown:     pricing.Price(items, o.rulesFor(flow)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sess.ID,
		"flow":       flow,
	}).Info("Checkout started")

	return sess, nil
}

// Current returns the shopper's in-progress checkout session.
func (o *Orchestrator) Current(ctx context.Context, userID uint) (*Session, error) {
	sess, err := o.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SelectAddress attaches one of the shopper's saved addresses to the
// checkout and advances to payment selection.
func (o *Orchestrator) SelectAddress(ctx context.Context, sess *Session, addressID uint) error {
	if err := o.ensureMutable(sess); err != nil {
		return err
	}

	addr, err := o.addresses.GetAddress(sess.UserID, addressID)
	if err != nil {
		return err
	}

	sess.ShippingAddress = &order.ShippingAddress{
		Label:    string(addr.Label),
		FullName: addr.FullName,
		Phone:    addr.Phone,
		Address:  addr.Address,
		City:     addr.City,
		State:    addr.State,
		PinCode:  addr.PinCode,
		Country:  addr.Country,
	}
	sess.Step = StepSelectingPayment
	sess.UpdatedAt = time.Now()
	return o.sessions.Save(ctx, sess)
}

// SelectPayment records the payment method and advances to order review.
// An address must already be selected.
func (o *Orchestrator) SelectPayment(ctx context.Context, sess *Session, method order.PaymentMethod) error {
	if err := o.ensureMutable(sess); err != nil {
		return err
	}
	if sess.ShippingAddress == nil {
		return ErrAddressRequired
	}
	if !method.IsValid() {
		return ErrInvalidPaymentMethod
	}

	sess.PaymentMethod = method
	sess.Step = StepReviewingOrder
	sess.UpdatedAt = time.Now()
	return o.sessions.Save(ctx, sess)
}

// Submit places the order. The cart is re-validated and re-priced
// immediately before submission; if it was revised in the meantime the
// checkout drops back to review with the corrected cart and the shopper
// must confirm again. The cart is cleared only after the order is
// persisted, so a failed submission never loses the shopper's cart.
func (o *Orchestrator) Submit(ctx context.Context, sess *Session, store *cart.Store) (*order.Order, error) {
	if sess.Step == StepSubmitting {
		if time.Since(sess.UpdatedAt) < submitRetryAfter {
			return nil, ErrSubmitInFlight
		}
		o.logger.WithFields(logrus.Fields{
			"user_id":    sess.UserID,
			"session_id": sess.ID,
		}).Warn("Resuming checkout stuck in submitting")
	}
	if sess.Step == StepSucceeded {
		return nil, ErrCheckoutFinished
	}
	if sess.Step != StepReviewingOrder && sess.Step != StepFailed {
		if sess.ShippingAddress == nil {
			return nil, ErrAddressRequired
		}
		if !sess.PaymentMethod.IsValid() {
			return nil, ErrInvalidPaymentMethod
		}
	}

	sess.Step = StepSubmitting
	sess.UpdatedAt = time.Now()
	if err := o.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	items, modified := cart.ValidateAndClean(store.Items(), o.logger)
	if modified {
		if err := store.Load(ctx, items); err != nil {
			return nil, o.fail(ctx, sess, err)
		}
	}
	if len(items) == 0 {
		sess.Step = StepReviewingOrder
		sess.UpdatedAt = time.Now()
		if err := o.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return nil, ErrEmptyCart
	}

	breakdown := pricing.Price(items, o.rulesFor(sess.Flow))
	if modified || breakdown != sess.Breakdown {
		sess.Breakdown = breakdown
		sess.Step = StepReviewingOrder
		sess.UpdatedAt = time.Now()
		if err := o.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return nil, ErrCartChanged
	}

	sub := &order.Submission{
		IdempotencyKey:  sess.ID,
		Items:           items,
		ShippingAddress: *sess.ShippingAddress,
		PaymentMethod:   sess.PaymentMethod,
		PricingFlow:     sess.Flow,
		ItemsPrice:      breakdown.ItemsPrice,
		ShippingPrice:   breakdown.ShippingPrice,
		TaxPrice:        breakdown.TaxPrice,
		TotalPrice:      breakdown.TotalPrice,
	}

	placed, err := o.orders.Create(sess.UserID, sub)
	if err != nil {
		return nil, o.fail(ctx, sess, err)
	}

	sess.Step = StepSucceeded
	sess.OrderID = placed.ID
	sess.FailureReason = ""
	sess.UpdatedAt = time.Now()
	if err := o.sessions.Save(ctx, sess); err != nil {
		o.logger.WithError(err).WithField("order_id", placed.ID).Warn("Failed to record checkout success")
	}

	// The order exists; a cart that fails to clear is an annoyance, not a
	// correctness problem.
	if err := store.Clear(ctx); err != nil {
		o.logger.WithError(err).WithField("user_id", sess.UserID).Warn("Failed to clear cart after checkout")
	}

	o.logger.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"order_id": placed.ID,
	}).Info("Checkout succeeded")

	return placed, nil
}

// fail records the submission failure on the session, leaving the cart
// untouched so the shopper can retry.
func (o *Orchestrator) fail(ctx context.Context, sess *Session, cause error) error {
	reason := submitFallbackReason
	if cause != nil && strings.TrimSpace(cause.Error()) != "" {
		reason = cause.Error()
	}

	sess.Step = StepFailed
	sess.FailureReason = reason
	sess.UpdatedAt = time.Now()
	if err := o.sessions.Save(ctx, sess); err != nil {
		o.logger.WithError(err).Warn("Failed to record checkout failure")
	}

	o.logger.WithFields(logrus.Fields{
		"user_id": sess.UserID,
		"reason":  reason,
	}).Warn("Checkout submission failed")

	return cause
}

func (o *Orchestrator) ensureMutable(sess *Session) error {
	switch sess.Step {
	case StepSubmitting:
		return ErrSubmitInFlight
	case StepSucceeded:
		return ErrCheckoutFinished
	}
	return nil
}
