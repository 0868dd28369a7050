// internal/domain/checkout/orchestrator_test.go
package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/cart"
	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/domain/user"
	"github.com/sirupsen/logrus"
)

type memSessionStore struct {
	sessions map[uint]*Session
	saveErr  error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uint]*Session)}
}

func (m *memSessionStore) Save(_ context.Context, sess *Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *sess
	m.sessions[sess.UserID] = &copied
	return nil
}

func (m *memSessionStore) Load(_ context.Context, userID uint) (*Session, error) {
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (m *memSessionStore) Delete(_ context.Context, userID uint) error {
	delete(m.sessions, userID)
	return nil
}

type memPersistence struct {
	blobs map[string][]byte
}

func newMemPersistence() *memPersistence {
	return &memPersistence{blobs: make(map[string][]byte)}
}

func (m *memPersistence) Save(_ context.Context, key string, data []byte) error {
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memPersistence) Load(_ context.Context, key string) ([]byte, error) {
	return m.blobs[key], nil
}

func (m *memPersistence) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

type fakeAddressBook struct {
	addresses map[uint]*user.Address
}

func (f *fakeAddressBook) GetAddress(_, addressID uint) (*user.Address, error) {
	addr, ok := f.addresses[addressID]
	if !ok {
		return nil, errors.New("address not found")
	}
	return addr, nil
}

type fakeOrderPlacer struct {
	submissions []*order.Submission
	err         error
	nextID      uint
}

func (f *fakeOrderPlacer) Create(userID uint, sub *order.Submission) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submissions = append(f.submissions, sub)
	f.nextID++
	return &order.Order{
		ID:         f.nextID,
		UserID:     userID,
		TotalPrice: sub.TotalPrice,
	}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:  0.18,
		Standard: config.ShippingRule{FreeShippingThreshold: 100000, FlatShippingFee: 5000},
		Express:  config.ShippingRule{FreeShippingThreshold: 50000, FlatShippingFee: 5000},
	}
}

func testAddress() *user.Address {
	return &user.Address{
		ID:       7,
		UserID:   1,
		Label:    user.AddressLabelHome,
		FullName: "Kamala Devi",
		Phone:    "9876543210",
		Address:  "14 Canal Road",
		City:     "Coimbatore",
		State:    "Tamil Nadu",
		PinCode:  "641001",
		Country:  "India",
	}
}

func newCartStore(t *testing.T, p cart.Persistence, items []cart.LineItem) *cart.Store {
	t.Helper()
	store, err := cart.NewStore(context.Background(), p, 1, quietLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, item := range items {
		if err := store.Add(context.Background(), item, item.Quantity); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return store
}

func testItems() []cart.LineItem {
	return []cart.LineItem{
		{ProductID: "64a1b2c3d4e5f60718293a4b", Name: "Solar Water Pump", UnitPrice: 40000, Quantity: 3, Category: "irrigation"},
	}
}

func startedCheckout(t *testing.T) (*Orchestrator, *Session, *cart.Store, *fakeOrderPlacer, *memSessionStore) {
	t.Helper()
	sessions := newMemSessionStore()
	placer := &fakeOrderPlacer{}
	book := &fakeAddressBook{addresses: map[uint]*user.Address{7: testAddress()}}
	orch := NewOrchestrator(sessions, book, placer, testPricingConfig(), quietLogger())

	store := newCartStore(t, newMemPersistence(), testItems())
	sess, err := orch.Begin(context.Background(), 1, "standard", store)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return orch, sess, store, placer, sessions
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	sessions := newMemSessionStore()
	orch := NewOrchestrator(sessions, &fakeAddressBook{}, &fakeOrderPlacer{}, testPricingConfig(), quietLogger())

	store := newCartStore(t, newMemPersistence(), nil)
	if _, err := orch.Begin(context.Background(), 1, "standard", store); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestBeginPricesCart(t *testing.T) {
	_, sess, _, _, _ := startedCheckout(t)

	if sess.Step != StepSelectingAddress {
		t.Fatalf("expected step %s, got %s", StepSelectingAddress, sess.Step)
	}
	if sess.Breakdown.ItemsPrice != 120000 {
		t.Errorf("items price = %d, want 120000", sess.Breakdown.ItemsPrice)
	}
	if sess.Breakdown.ShippingPrice != 0 {
		t.Errorf("shipping = %d, want 0 (over free-shipping threshold)", sess.Breakdown.ShippingPrice)
	}
	if sess.Breakdown.TotalPrice != 141600 {
		t.Errorf("total = %d, want 141600", sess.Breakdown.TotalPrice)
	}
	if sess.ID == "" {
		t.Error("expected a session ID")
	}
}

func TestSelectPaymentRequiresAddress(t *testing.T) {
	orch, sess, _, _, _ := startedCheckout(t)

	err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD)
	if !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
}

func TestSelectAddressThenPayment(t *testing.T) {
	orch, sess, _, _, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if sess.Step != StepSelectingPayment {
		t.Fatalf("expected step %s, got %s", StepSelectingPayment, sess.Step)
	}
	if sess.ShippingAddress == nil || sess.ShippingAddress.City != "Coimbatore" {
		t.Fatalf("shipping address not captured: %+v", sess.ShippingAddress)
	}

	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}
	if sess.Step != StepReviewingOrder {
		t.Fatalf("expected step %s, got %s", StepReviewingOrder, sess.Step)
	}
}

func TestSelectPaymentRejectsUnknownMethod(t *testing.T) {
	orch, sess, _, _, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, "barter"); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}
}

func TestSubmitPlacesOrderAndClearsCart(t *testing.T) {
	orch, sess, store, placer, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}

	placed, err := orch.Submit(context.Background(), sess, store)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if placed == nil || placed.ID == 0 {
		t.Fatal("expected a placed order")
	}
	if sess.Step != StepSucceeded {
		t.Errorf("expected step %s, got %s", StepSucceeded, sess.Step)
	}
	if sess.OrderID != placed.ID {
		t.Errorf("session order id = %d, want %d", sess.OrderID, placed.ID)
	}
	clearedCart := store.Cart()
	if !clearedCart.IsEmpty() {
		t.Error("cart should be cleared after a successful submission")
	}

	if len(placer.submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(placer.submissions))
	}
	sub := placer.submissions[0]
	if sub.IdempotencyKey != sess.ID {
		t.Errorf("idempotency key = %q, want session id %q", sub.IdempotencyKey, sess.ID)
	}
	if sub.TotalPrice != 141600 {
		t.Errorf("submitted total = %d, want 141600", sub.TotalPrice)
	}
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	orch, sess, store, placer, sessions := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}

	placer.err = errors.New("insufficient stock for Solar Water Pump")
	if _, err := orch.Submit(context.Background(), sess, store); err == nil {
		t.Fatal("expected submission error")
	}

	saved, _ := sessions.Load(context.Background(), 1)
	if saved.Step != StepFailed {
		t.Errorf("expected step %s, got %s", StepFailed, saved.Step)
	}
	if saved.FailureReason != "insufficient stock for Solar Water Pump" {
		t.Errorf("failure reason = %q, want the server error verbatim", saved.FailureReason)
	}
	survivingCart := store.Cart()
	if survivingCart.IsEmpty() {
		t.Error("cart must survive a failed submission")
	}

	// A failed checkout can be submitted again.
	placer.err = nil
	if _, err := orch.Submit(context.Background(), sess, store); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestSubmitRejectsConcurrentSubmit(t *testing.T) {
	orch, sess, store, _, _ := startedCheckout(t)

	sess.Step = StepSubmitting
	if _, err := orch.Submit(context.Background(), sess, store); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
}

func TestSubmitRetriesStaleSubmitting(t *testing.T) {
	orch, sess, store, placer, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}

	// A session abandoned mid-submit (crash between the Submitting save
	// and the outcome save) may be retried once it has gone stale; the
	// idempotency key makes the retry a replay on the order side.
	sess.Step = StepSubmitting
	sess.UpdatedAt = time.Now().Add(-submitRetryAfter - time.Minute)

	ord, err := orch.Submit(context.Background(), sess, store)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ord == nil || sess.Step != StepSucceeded {
		t.Fatalf("expected success, step = %s", sess.Step)
	}
	if len(placer.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(placer.submissions))
	}
	if placer.submissions[0].IdempotencyKey != sess.ID {
		t.Error("retried submission must reuse the session idempotency key")
	}
}

func TestBeginSeedsDefaultPaymentMethod(t *testing.T) {
	_, sess, _, _, _ := startedCheckout(t)

	if sess.PaymentMethod != order.PaymentMethodCOD {
		t.Fatalf("payment method = %q, want %q", sess.PaymentMethod, order.PaymentMethodCOD)
	}
}

func TestSubmitDropsBackToReviewWhenCartChanged(t *testing.T) {
	orch, sess, store, placer, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}

	// Cart mutated between review and submit.
	extra := cart.LineItem{ProductID: "64a1b2c3d4e5f60718293a4c", Name: "Drip Timer", UnitPrice: 5000, Quantity: 1}
	if err := store.Add(context.Background(), extra, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := orch.Submit(context.Background(), sess, store); !errors.Is(err, ErrCartChanged) {
		t.Fatalf("expected ErrCartChanged, got %v", err)
	}
	if sess.Step != StepReviewingOrder {
		t.Errorf("expected step %s, got %s", StepReviewingOrder, sess.Step)
	}
	if sess.Breakdown.ItemsPrice != 125000 {
		t.Errorf("re-priced items = %d, want 125000", sess.Breakdown.ItemsPrice)
	}
	if len(placer.submissions) != 0 {
		t.Fatal("no order may be placed while the cart is unconfirmed")
	}

	// Confirming the corrected cart goes through.
	if _, err := orch.Submit(context.Background(), sess, store); err != nil {
		t.Fatalf("Submit after review: %v", err)
	}
}

func TestSubmitCleansMalformedLines(t *testing.T) {
	orch, sess, store, placer, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}

	// A malformed line sneaks in via direct persistence tampering.
	items := append(store.Items(), cart.LineItem{ProductID: "not-an-id", Name: "Ghost", UnitPrice: 100, Quantity: 1})
	if err := store.Load(context.Background(), items); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := orch.Submit(context.Background(), sess, store); !errors.Is(err, ErrCartChanged) {
		t.Fatalf("expected ErrCartChanged, got %v", err)
	}
	for _, item := range store.Items() {
		if item.ProductID == "not-an-id" {
			t.Fatal("malformed line should have been dropped from the cart")
		}
	}
	if len(placer.submissions) != 0 {
		t.Fatal("no order may be placed from a tampered cart")
	}
}

func TestSubmitAfterSuccessRejected(t *testing.T) {
	orch, sess, store, _, _ := startedCheckout(t)

	if err := orch.SelectAddress(context.Background(), sess, 7); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := orch.SelectPayment(context.Background(), sess, order.PaymentMethodCOD); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}
	if _, err := orch.Submit(context.Background(), sess, store); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := orch.Submit(context.Background(), sess, store); !errors.Is(err, ErrCheckoutFinished) {
		t.Fatalf("expected ErrCheckoutFinished, got %v", err)
	}
}

func TestCurrentWithoutSession(t *testing.T) {
	sessions := newMemSessionStore()
	orch := NewOrchestrator(sessions, &fakeAddressBook{}, &fakeOrderPlacer{}, testPricingConfig(), quietLogger())

	if _, err := orch.Current(context.Background(), 42); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestExpressFlowUsesLowerThreshold(t *testing.T) {
	sessions := newMemSessionStore()
	orch := NewOrchestrator(sessions, &fakeAddressBook{}, &fakeOrderPlacer{}, testPricingConfig(), quietLogger())

	// ₹600 cart: free for express (threshold ₹500), charged for standard (threshold ₹1000).
	items := []cart.LineItem{{ProductID: "64a1b2c3d4e5f60718293a4d", Name: "Moisture Sensor", UnitPrice: 60000, Quantity: 1}}

	express, err := orch.Begin(context.Background(), 1, "express", newCartStore(t, newMemPersistence(), items))
	if err != nil {
		t.Fatalf("Begin express: %v", err)
	}
	if express.Breakdown.ShippingPrice != 0 {
		t.Errorf("express shipping = %d, want 0", express.Breakdown.ShippingPrice)
	}

	standard, err := orch.Begin(context.Background(), 2, "standard", newCartStore(t, newMemPersistence(), items))
	if err != nil {
		t.Fatalf("Begin standard: %v", err)
	}
	if standard.Breakdown.ShippingPrice != 5000 {
		t.Errorf("standard shipping = %d, want 5000", standard.Breakdown.ShippingPrice)
	}
}
