// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the closed set of statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is the shopper's chosen payment method. Settlement happens
// outside this system; only the choice and the paid flag are recorded.
type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "cod"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
)

// IsValid reports whether m is a supported payment method.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodRazorpay
}

// Order represents a placed purchase. Items, prices and the shipping
// address are snapshots fixed at creation; later address-book or catalog
// edits never alter a placed order. Only the status and payment flags
// mutate afterwards.
type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	OrderNumber    string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID         uint        `gorm:"not null;index" json:"user_id"`
	IdempotencyKey string      `gorm:"uniqueIndex;size:64" json:"-"`
	Status         OrderStatus `gorm:"not null;default:'pending'" json:"order_status"`

	// Financial information, in paise
	ItemsPrice    int64 `gorm:"not null" json:"items_price"`
	ShippingPrice int64 `gorm:"default:0" json:"shipping_price"`
	TaxPrice      int64 `gorm:"default:0" json:"tax_price"`
	TotalPrice    int64 `gorm:"not null" json:"total_price"`

	// Address snapshot, embedded by value
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Payment
	PaymentMethod PaymentMethod `gorm:"not null;size:20" json:"payment_method"`
	IsPaid        bool          `gorm:"default:false" json:"is_paid"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	// Timestamps
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"order_items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a price-and-name snapshot of a cart line at placement time,
// decoupled from live catalog data.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  string    `gorm:"not null;size:24;index" json:"product_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	Image      string    `gorm:"size:512" json:"image"`
	Category   string    `gorm:"size:100" json:"category"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	TotalPrice int64     `gorm:"not null" json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// ShippingAddress is the address snapshot embedded in an order.
type ShippingAddress struct {
	Label    string `gorm:"size:20" json:"label"`
	FullName string `gorm:"size:100" json:"full_name"`
	Phone    string `gorm:"size:10" json:"phone"`
	Address  string `gorm:"size:255" json:"address"`
	City     string `gorm:"size:100" json:"city"`
	State    string `gorm:"size:100" json:"state"`
	PinCode  string `gorm:"size:6" json:"pin_code"`
	Country  string `gorm:"size:100" json:"country"`
}

// StatusHistory tracks order status changes
type StatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderItem) TableName() string     { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber formats the public order number: ORD-YYYYMMDD-XXXXX.
func GenerateOrderNumber(orderID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), orderID)
}

// CanBeCancelled reports whether the order is still cancellable.
func (o *Order) CanBeCancelled() bool {
	return IsCancellable(o.Status)
}
