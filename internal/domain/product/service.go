// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"

	"github.com/agrovolt/backend/internal/config"
	"gorm.io/gorm"
)

// Service handles catalog read paths. Catalog management itself lives
// outside this system; the storefront only needs to resolve products into
// cart line items.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents catalog list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// GetProducts retrieves active products with optional filtering.
func (s *Service) GetProducts(req *ListRequest) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).Where("is_active = ?", true)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		query = query.Where("name ILIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, total, nil
}

// GetProduct retrieves a single active product by its identifier.
func (s *Service) GetProduct(id string) (*Product, error) {
	var product Product
	result := s.db.Where("id = ? AND is_active = ?", id, true).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}
