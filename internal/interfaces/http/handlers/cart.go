// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/cart"
	"github.com/agrovolt/backend/internal/domain/pricing"
	"github.com/agrovolt/backend/internal/domain/product"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	persistence    cart.Persistence
	productService *product.Service
	config         *config.Config
	logger         *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		persistence:    cart.NewRedisPersistence(redisClient),
		productService: product.NewService(db, cfg),
		config:         cfg,
		logger:         logger,
	}
}

// AddToCartRequest is the payload for POST /cart/items
type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest is the payload for PUT /cart/items/:id
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}

	h.respondWithCart(c, store, "Cart retrieved successfully")
}

// AddToCart handles POST /cart/items. The unit price comes from the
// catalog, never from the client.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !cart.IsValidProductID(req.ProductID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	prod, err := h.productService.GetProduct(req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	store, ok := h.openStore(c)
	if !ok {
		return
	}

	item := cart.LineItem{
		ProductID: prod.ID,
		Name:      prod.Name,
		Image:     prod.Image,
		Category:  prod.Category,
		UnitPrice: prod.Price,
	}
	if err := store.Add(c.Request.Context(), item, req.Quantity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.respondWithCart(c, store, "Item added to cart successfully")
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	productID := c.Param("id")
	if !cart.IsValidProductID(productID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store, ok := h.openStore(c)
	if !ok {
		return
	}

	if err := store.SetQuantity(c.Request.Context(), productID, req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update cart item",
		})
		return
	}

	h.respondWithCart(c, store, "Cart item updated successfully")
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID := c.Param("id")
	if !cart.IsValidProductID(productID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	store, ok := h.openStore(c)
	if !ok {
		return
	}

	if err := store.Remove(c.Request.Context(), productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove cart item",
		})
		return
	}

	h.respondWithCart(c, store, "Item removed from cart successfully")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}

	if err := store.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store, ok := h.openStore(c)
	if !ok {
		return
	}

	snapshot := store.Cart()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": snapshot.TotalQuantity(),
		},
	})
}

// openStore loads the authenticated shopper's cart
func (h *CartHandler) openStore(c *gin.Context) (*cart.Store, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return nil, false
	}

	store, err := cart.NewStore(c.Request.Context(), h.persistence, userID, h.logger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return nil, false
	}
	return store, true
}

// respondWithCart returns the cart with a priced summary. The flow query
// parameter selects the shipping rule; it defaults to standard.
func (h *CartHandler) respondWithCart(c *gin.Context, store *cart.Store, message string) {
	flow := c.DefaultQuery("flow", "standard")
	rule := h.config.Pricing.Standard
	if flow == "express" {
		rule = h.config.Pricing.Express
	} else {
		flow = "standard"
	}

	breakdown := pricing.Price(store.Items(), pricing.Rules{
		FreeShippingThreshold: rule.FreeShippingThreshold,
		FlatShippingFee:       rule.FlatShippingFee,
		TaxRate:               h.config.Pricing.TaxRate,
	})

	snapshot := store.Cart()
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"items":          store.Items(),
			"total_quantity": snapshot.TotalQuantity(),
			"flow":           flow,
			"summary":        breakdown,
		},
	})
}
