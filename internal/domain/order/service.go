// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/cart"
	"github.com/agrovolt/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrPricingMismatch rejects submissions whose client-computed totals do
// not match the server-side recomputation. Client totals are never trusted
// as authoritative.
var ErrPricingMismatch = errors.New("submitted totals do not match server pricing")

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// Submission is the order payload produced by checkout. Items and the
// address are snapshots fixed at submit time; the breakdown components are
// the client's view and are cross-checked against a server recomputation.
type Submission struct {
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	Items           []cart.LineItem `json:"order_items" binding:"required"`
	ShippingAddress ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   PaymentMethod   `json:"payment_method" binding:"required"`
	PricingFlow     string          `json:"pricing_flow,omitempty"`
	ItemsPrice      int64           `json:"items_price"`
	ShippingPrice   int64           `json:"shipping_price"`
	TaxPrice        int64           `json:"tax_price"`
	TotalPrice      int64           `json:"total_price"`
}

// ListRequest represents admin order list query parameters
type ListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	UserID    uint        `form:"user_id"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
}

// ListResponse represents an order page with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// RulesForFlow resolves the configured pricing rules for a checkout flow.
// Unknown flows fall back to the standard rules.
func (s *Service) RulesForFlow(flow string) pricing.Rules {
	rule := s.config.Pricing.Standard
	if flow == "express" {
		rule = s.config.Pricing.Express
	}
	return pricing.Rules{
		FreeShippingThreshold: rule.FreeShippingThreshold,
		FlatShippingFee:       rule.FlatShippingFee,
		TaxRate:               s.config.Pricing.TaxRate,
	}
}

// newOrder builds the row inserted for a submission. A submission without
// an idempotency key gets a generated one: the column carries a unique
// index, so a second empty key would collide. The public order number
// needs the row ID, so the insert carries a provisional unique number
// derived from the key; Create fixes it up inside the transaction.
func newOrder(userID uint, sub *Submission, breakdown pricing.Breakdown) Order {
	key := sub.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}
	return Order{
		UserID:          userID,
		IdempotencyKey:  key,
		OrderNumber:     "TMP-" + key,
		Status:          OrderStatusPending,
		ItemsPrice:      breakdown.ItemsPrice,
		ShippingPrice:   breakdown.ShippingPrice,
		TaxPrice:        breakdown.TaxPrice,
		TotalPrice:      breakdown.TotalPrice,
		ShippingAddress: sub.ShippingAddress,
		PaymentMethod:   sub.PaymentMethod,
	}
}

// Create places a new order from a checkout submission. The breakdown is
// recomputed server-side and the submission is rejected when the client's
// totals disagree. An idempotency key replay returns the already-created
// order instead of placing a duplicate.
func (s *Service) Create(userID uint, sub *Submission) (*Order, error) {
	if len(sub.Items) == 0 {
		return nil, fmt.Errorf("cannot place an order with no items")
	}
	if !sub.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("unsupported payment method: %s", sub.PaymentMethod)
	}
	for _, item := range sub.Items {
		if !cart.IsValidProductID(item.ProductID) {
			return nil, fmt.Errorf("malformed product identifier: %s", item.ProductID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("line item quantity must be at least 1")
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("line item price must be non-negative")
		}
	}

	// Replay detection: a duplicate submit (double click, retried request)
	// returns the order it already created.
	if sub.IdempotencyKey != "" {
		var existing Order
		err := s.db.Preload("Items").
			Where("idempotency_key = ? AND user_id = ?", sub.IdempotencyKey, userID).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
	}

	// Server-side recomputation; the client's breakdown is advisory only.
	breakdown := pricing.Price(sub.Items, s.RulesForFlow(sub.PricingFlow))
	if sub.ItemsPrice != breakdown.ItemsPrice ||
		sub.ShippingPrice != breakdown.ShippingPrice ||
		sub.TaxPrice != breakdown.TaxPrice ||
		sub.TotalPrice != breakdown.TotalPrice {
		return nil, ErrPricingMismatch
	}

	order := newOrder(userID, sub, breakdown)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber = GenerateOrderNumber(order.ID)
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}

		for _, item := range sub.Items {
			orderItem := OrderItem{
				OrderID:    order.ID,
				ProductID:  item.ProductID,
				Name:       item.Name,
				Image:      item.Image,
				Category:   item.Category,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.UnitPrice * int64(item.Quantity),
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		history := StatusHistory{
			OrderID:   order.ID,
			Status:    OrderStatusPending,
			Comment:   "Order created",
			CreatedBy: userID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Items").Preload("StatusHistory").First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load complete order: %w", err)
	}

	return &order, nil
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(id uint) (*Order, error) {
	var order Order
	result := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&order)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &order, nil
}

// GetUserOrders retrieves orders for a specific shopper
func (s *Service) GetUserOrders(userID uint, page, limit int) (*ListResponse, error) {
	return s.GetOrders(&ListRequest{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	})
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Cancel cancels an order. The state machine gates the move; ownership is
// checked at the API boundary before this is called.
func (s *Service) Cancel(orderID uint, reason string, cancelledBy uint) error {
	var order Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return fmt.Errorf("order not found: %w", err)
	}

	if err := Transition(order.Status, OrderStatusCancelled); err != nil {
		return fmt.Errorf("cannot cancel an order in status %s: %w", order.Status, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Update("status", OrderStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		history := StatusHistory{
			OrderID:   orderID,
			Status:    OrderStatusCancelled,
			Comment:   fmt.Sprintf("Order cancelled: %s", reason),
			CreatedBy: cancelledBy,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

// UpdateStatus applies an operator-driven status change through the state
// machine, recording history and fulfilment timestamps. Rejections carry a
// reason the operator can act on.
func (s *Service) UpdateStatus(orderID uint, status OrderStatus, comment string, updatedBy uint) error {
	var order Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return fmt.Errorf("order not found: %w", err)
	}

	if err := Transition(order.Status, status); err != nil {
		switch {
		case errors.Is(err, ErrTerminalStatus):
			return fmt.Errorf("cannot change a %s order: %w", order.Status, err)
		case errors.Is(err, ErrNotCancellable):
			return fmt.Errorf("cannot cancel a %s order: %w", order.Status, err)
		default:
			return fmt.Errorf("invalid status transition from %s to %s: %w", order.Status, status, err)
		}
	}

	updates := map[string]interface{}{
		"status": status,
	}

	now := time.Now().UTC()
	switch status {
	case OrderStatusProcessing:
		updates["processed_at"] = now
	case OrderStatusShipped:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		history := StatusHistory{
			OrderID:   orderID,
			Status:    status,
			Comment:   comment,
			CreatedBy: updatedBy,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

// MarkPaid records external payment settlement for an order.
func (s *Service) MarkPaid(orderID uint) error {
	now := time.Now().UTC()
	result := s.db.Model(&Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark order paid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_price":  true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
