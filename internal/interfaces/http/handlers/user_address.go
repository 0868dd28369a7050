// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/user"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserAddressHandler handles address book endpoints
type UserAddressHandler struct {
	addressService *user.AddressService
}

// NewUserAddressHandler creates a new address handler
func NewUserAddressHandler(db *gorm.DB, cfg *config.Config) *UserAddressHandler {
	return &UserAddressHandler{
		addressService: user.NewAddressService(db, cfg),
	}
}

// GetAddresses handles GET /auth/addresses
func (h *UserAddressHandler) GetAddresses(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	addresses, err := h.addressService.GetUserAddresses(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve addresses",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Addresses retrieved successfully",
		"data":    addresses,
	})
}

// GetAddress handles GET /auth/addresses/:id
func (h *UserAddressHandler) GetAddress(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	address, err := h.addressService.GetAddress(userID, addressID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Address not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address retrieved successfully",
		"data":    address,
	})
}

// CreateAddress handles POST /auth/addresses
func (h *UserAddressHandler) CreateAddress(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req user.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	address, err := h.addressService.CreateAddress(userID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Address created successfully",
		"data":    address,
	})
}

// UpdateAddress handles PUT /auth/addresses/:id
func (h *UserAddressHandler) UpdateAddress(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	var req user.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	address, err := h.addressService.UpdateAddress(userID, addressID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
		"data":    address,
	})
}

// DeleteAddress handles DELETE /auth/addresses/:id
func (h *UserAddressHandler) DeleteAddress(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	if err := h.addressService.DeleteAddress(userID, addressID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Address not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted successfully",
	})
}

func parseAddressID(c *gin.Context) (uint, bool) {
	idParam := c.Param("id")
	addressID, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid address ID",
		})
		return 0, false
	}
	return uint(addressID), true
}
