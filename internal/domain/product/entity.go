// internal/domain/product/entity.go
package product

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog entry. The primary key is the canonical
// 24-character hexadecimal identifier carried through carts and order
// snapshots.
type Product struct {
	ID          string         `gorm:"primaryKey;size:24" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `gorm:"size:512" json:"image"`
	Category    string         `gorm:"size:100;index" json:"category"`
	Price       int64          `gorm:"not null" json:"price"` // In paise
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewProductID()
	}
	return nil
}

// NewProductID returns a fresh 24-character hexadecimal identifier.
func NewProductID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}
