// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/domain/order"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/agrovolt/backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
	config       *config.Config
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: order.NewService(db, cfg, logger),
		pdfService:   pdf.NewService(cfg),
		config:       cfg,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	ord, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.pdfService.GenerateInvoice(ord)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	// Headers for PDF download
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", ord.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(len(pdfBuffer.Bytes())))

	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	ord, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	invoiceData := map[string]interface{}{
		"invoice_number": fmt.Sprintf("INV-%s", ord.OrderNumber),
		"invoice_date":   time.Now().Format("January 2, 2006"),
		"order":          ord,
		"company": map[string]interface{}{
			"name":    h.config.App.CompanyName,
			"address": h.config.App.CompanyAddress,
			"phone":   h.config.App.CompanyPhone,
			"email":   h.config.App.CompanyEmail,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice data retrieved successfully",
		"data":    invoiceData,
	})
}

// loadOwnOrder resolves the :id parameter to an order owned by the caller.
func (h *InvoiceHandler) loadOwnOrder(c *gin.Context) (*order.Order, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return nil, false
	}

	ord, err := h.orderService.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return nil, false
	}

	if ord.UserID != userID && !middleware.IsAdminFromContext(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		return nil, false
	}

	return ord, true
}
