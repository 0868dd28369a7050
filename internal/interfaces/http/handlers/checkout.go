// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/cart"
	"github.com/agrovolt/backend/internal/domain/checkout"
	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/domain/user"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CheckoutHandler drives the checkout flow endpoints
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	persistence  cart.Persistence
	logger       *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CheckoutHandler {
	orchestrator := checkout.NewOrchestrator(
		checkout.NewRedisSessionStore(redisClient),
		user.NewAddressService(db, cfg),
		order.NewService(db, cfg, logger),
		cfg.Pricing,
		logger,
	)
	return &CheckoutHandler{
		orchestrator: orchestrator,
		persistence:  cart.NewRedisPersistence(redisClient),
		logger:       logger,
	}
}

// BeginCheckoutRequest is the payload for POST /checkout
type BeginCheckoutRequest struct {
	Flow string `json:"flow"`
}

// SelectAddressRequest is the payload for PUT /checkout/address
type SelectAddressRequest struct {
	AddressID uint `json:"address_id" binding:"required"`
}

// SelectPaymentRequest is the payload for PUT /checkout/payment
type SelectPaymentRequest struct {
	PaymentMethod order.PaymentMethod `json:"payment_method" binding:"required"`
}

// Begin handles POST /checkout
func (h *CheckoutHandler) Begin(c *gin.Context) {
	userID, store, ok := h.openStore(c)
	if !ok {
		return
	}

	// Body is optional; an absent flow means standard shipping.
	var req BeginCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sess, err := h.orchestrator.Begin(c.Request.Context(), userID, req.Flow, store)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout started",
		"data":    sess,
	})
}

// Current handles GET /checkout
func (h *CheckoutHandler) Current(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sess, err := h.orchestrator.Current(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session retrieved",
		"data":    sess,
	})
}

// SelectAddress handles PUT /checkout/address
func (h *CheckoutHandler) SelectAddress(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req SelectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sess, err := h.orchestrator.Current(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	if err := h.orchestrator.SelectAddress(c.Request.Context(), sess, req.AddressID); err != nil {
		h.respondError(c, err, sess)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shipping address selected",
		"data":    sess,
	})
}

// SelectPayment handles PUT /checkout/payment
func (h *CheckoutHandler) SelectPayment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req SelectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sess, err := h.orchestrator.Current(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	if err := h.orchestrator.SelectPayment(c.Request.Context(), sess, req.PaymentMethod); err != nil {
		h.respondError(c, err, sess)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment method selected",
		"data":    sess,
	})
}

// Submit handles POST /checkout/submit
func (h *CheckoutHandler) Submit(c *gin.Context) {
	userID, store, ok := h.openStore(c)
	if !ok {
		return
	}

	sess, err := h.orchestrator.Current(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	placed, err := h.orchestrator.Submit(c.Request.Context(), sess, store)
	if err != nil {
		h.respondError(c, err, sess)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data": gin.H{
			"order":   placed,
			"session": sess,
		},
	})
}

func (h *CheckoutHandler) openStore(c *gin.Context) (uint, *cart.Store, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return 0, nil, false
	}

	store, err := cart.NewStore(c.Request.Context(), h.persistence, userID, h.logger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cart"})
		return 0, nil, false
	}
	return userID, store, true
}

// respondError maps checkout errors onto HTTP statuses. The session, when
// available, rides along so clients can re-render the current step.
func (h *CheckoutHandler) respondError(c *gin.Context, err error, sess *checkout.Session) {
	body := gin.H{"error": err.Error()}
	if sess != nil {
		body["data"] = sess
	}

	switch {
	case errors.Is(err, checkout.ErrNoSession):
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, checkout.ErrCartChanged),
		errors.Is(err, checkout.ErrSubmitInFlight),
		errors.Is(err, checkout.ErrCheckoutFinished):
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, order.ErrPricingMismatch):
		c.JSON(http.StatusConflict, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
