// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/user"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserAdminHandler handles admin account-management endpoints
type UserAdminHandler struct {
	userService *user.Service
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(db *gorm.DB, cfg *config.Config) *UserAdminHandler {
	return &UserAdminHandler{
		userService: user.NewService(db, cfg),
	}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.userService.GetUsers(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to retrieve users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Users retrieved successfully",
		"data": gin.H{
			"users": users,
			"total": total,
		},
	})
}

// SetUserActive handles PUT /admin/users/:id/active
func (h *UserAdminHandler) SetUserActive(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid user ID",
		})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.userService.SetUserActive(uint(userID), *req.Active); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
	})
}
