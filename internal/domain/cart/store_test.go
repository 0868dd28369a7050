// internal/domain/cart/store_test.go
package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

// memPersistence is an in-memory Persistence used by tests.
type memPersistence struct {
	data  map[string][]byte
	saves int
}

func newMemPersistence() *memPersistence {
	return &memPersistence{data: make(map[string][]byte)}
}

func (m *memPersistence) Save(_ context.Context, key string, data []byte) error {
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memPersistence) Load(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (m *memPersistence) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestStore(t *testing.T, p Persistence) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), p, 42, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func sampleItem(id string, price int64) LineItem {
	return LineItem{
		ProductID: id,
		Name:      "Soil Moisture Sensor",
		Image:     "/images/soil-sensor.png",
		UnitPrice: price,
		Category:  "sensors",
	}
}

func TestAddMergesExistingLineItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemPersistence())

	item := sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 60000)
	if err := s.Add(ctx, item, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, item, 3); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", items[0].Quantity)
	}
}

func TestAddAppendsNewLineItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemPersistence())

	if err := s.Add(ctx, sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 60000), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, sampleItem("b2b2b2b2b2b2b2b2b2b2b2b2", 20000), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	// Insertion order is preserved.
	if items[0].ProductID != "a1a1a1a1a1a1a1a1a1a1a1a1" {
		t.Errorf("expected first item to keep insertion order, got %s", items[0].ProductID)
	}
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	s := newTestStore(t, newMemPersistence())
	if err := s.Add(context.Background(), sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 100), 0); err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestSetQuantityZeroRemovesLineItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemPersistence())

	id := "a1a1a1a1a1a1a1a1a1a1a1a1"
	if err := s.Add(ctx, sampleItem(id, 100), 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for _, quantity := range []int{0, -3} {
		if err := s.SetQuantity(ctx, id, quantity); err != nil {
			t.Fatalf("SetQuantity(%d): %v", quantity, err)
		}
		if len(s.Items()) != 0 {
			t.Errorf("SetQuantity(%d) should remove the line item", quantity)
		}
	}
}

func TestSetQuantityIsExactNotAdditive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemPersistence())

	id := "a1a1a1a1a1a1a1a1a1a1a1a1"
	if err := s.Add(ctx, sampleItem(id, 100), 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.SetQuantity(ctx, id, 2); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}

	if got := s.Items()[0].Quantity; got != 2 {
		t.Errorf("expected quantity 2, got %d", got)
	}
}

func TestRemoveMissingItemIsNoOp(t *testing.T) {
	s := newTestStore(t, newMemPersistence())
	if err := s.Remove(context.Background(), "ffffffffffffffffffffffff"); err != nil {
		t.Errorf("Remove on missing item should be a no-op, got %v", err)
	}
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	p := newMemPersistence()
	s := newTestStore(t, p)

	id := "a1a1a1a1a1a1a1a1a1a1a1a1"
	if err := s.Add(ctx, sampleItem(id, 100), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.SetQuantity(ctx, id, 4); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}

	if p.saves != 2 {
		t.Errorf("expected 2 persistence writes, got %d", p.saves)
	}

	// The persisted blob must reflect the latest mutation and carry the
	// schema version tag.
	var persisted persistedCart
	if err := json.Unmarshal(p.data["cart:user:42"], &persisted); err != nil {
		t.Fatalf("unmarshal persisted cart: %v", err)
	}
	if persisted.Version != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, persisted.Version)
	}
	if len(persisted.Items) != 1 || persisted.Items[0].Quantity != 4 {
		t.Errorf("persisted form out of sync with store: %+v", persisted.Items)
	}
}

func TestClearEmptiesCartAndPersistence(t *testing.T) {
	ctx := context.Background()
	p := newMemPersistence()
	s := newTestStore(t, p)

	if err := s.Add(ctx, sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 100), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if len(s.Items()) != 0 {
		t.Error("expected empty cart after Clear")
	}
	if _, ok := p.data["cart:user:42"]; ok {
		t.Error("expected persisted cart removed after Clear")
	}
}

func TestLoadReplacesCartWholesale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newMemPersistence())

	if err := s.Add(ctx, sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 100), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	replacement := []LineItem{
		{ProductID: "c3c3c3c3c3c3c3c3c3c3c3c3", Name: "Drip Controller", UnitPrice: 250000, Quantity: 1},
	}
	if err := s.Load(ctx, replacement); err != nil {
		t.Fatalf("Load: %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ProductID != "c3c3c3c3c3c3c3c3c3c3c3c3" {
		t.Errorf("expected wholesale replacement, got %+v", items)
	}
}

func TestStoreRestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	p := newMemPersistence()

	s := newTestStore(t, p)
	if err := s.Add(ctx, sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 60000), 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A new store over the same persistence sees the same cart.
	restored := newTestStore(t, p)
	items := restored.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("expected restored cart, got %+v", items)
	}
}

func TestUnparsablePersistedCartStartsEmpty(t *testing.T) {
	p := newMemPersistence()
	p.data["cart:user:42"] = []byte("{not json")

	s := newTestStore(t, p)
	if len(s.Items()) != 0 {
		t.Error("expected empty cart for unparsable persisted data")
	}
}

func TestForeignSchemaVersionStartsEmpty(t *testing.T) {
	p := newMemPersistence()
	blob, _ := json.Marshal(persistedCart{Version: 99, Items: []LineItem{sampleItem("a1a1a1a1a1a1a1a1a1a1a1a1", 1)}})
	p.data["cart:user:42"] = blob

	s := newTestStore(t, p)
	if len(s.Items()) != 0 {
		t.Error("expected empty cart for unknown schema version")
	}
}
