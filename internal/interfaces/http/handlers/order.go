// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: order.NewService(db, cfg, logger),
		config:       cfg,
	}
}

// CreateOrder handles POST /orders. It accepts a fully-built submission
// payload for callers that manage their own checkout flow; the service
// still revalidates the items and recomputes the totals server-side.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var sub order.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid order payload",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.orderService.Create(userID, &sub)
	if err != nil {
		if errors.Is(err, order.ErrPricingMismatch) {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"order":   ord,
	})
}

// GetMyOrders handles GET /orders/myorders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.orderService.GetUserOrders(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"orders":     response.Orders,
		"pagination": response.Pagination,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	ord, err := h.orderService.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}

	// A shopper may only see their own orders; admins see all.
	if ord.UserID != userID && !middleware.IsAdminFromContext(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   ord,
	})
}

// CancelOrder handles PUT /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	// Verify order belongs to user
	ord, err := h.orderService.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}

	if ord.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		return
	}

	if err := h.orderService.Cancel(orderID, req.Reason, userID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, order.ErrNotCancellable) || errors.Is(err, order.ErrTerminalStatus) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled successfully",
	})
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid query parameters",
		})
		return
	}

	response, err := h.orderService.GetOrders(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	ord, err := h.orderService.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order retrieved successfully",
		"data":    ord,
	})
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	adminID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Status  order.OrderStatus `json:"status" binding:"required"`
		Comment string            `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.orderService.UpdateStatus(orderID, req.Status, req.Comment, adminID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, order.ErrTerminalStatus) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status updated successfully",
	})
}

// AdminMarkPaid handles PUT /admin/orders/:id/pay
func (h *OrderHandler) AdminMarkPaid(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.orderService.MarkPaid(orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order marked as paid",
	})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	idParam := c.Param("id")
	orderID, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return 0, false
	}
	return uint(orderID), true
}
