// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents the shopper entity
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	Name        string         `gorm:"size:100" json:"name"`
	Phone       string         `gorm:"size:10" json:"phone"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	IsAdmin     bool           `gorm:"default:false" json:"is_admin"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// AddressLabel is the closed set of address-book labels.
type AddressLabel string

const (
	AddressLabelHome   AddressLabel = "Home"
	AddressLabelWork   AddressLabel = "Work"
	AddressLabelOffice AddressLabel = "Office"
	AddressLabelOther  AddressLabel = "Other"
)

// IsValid reports whether l is a recognised label.
func (l AddressLabel) IsValid() bool {
	switch l {
	case AddressLabelHome, AddressLabelWork, AddressLabelOffice, AddressLabelOther:
		return true
	}
	return false
}

// Address represents one entry in a shopper's address book. At most one
// address per shopper carries IsDefault = true; the address service
// enforces that invariant on every write.
type Address struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	Label     AddressLabel `gorm:"size:20;default:'Home'" json:"label"`
	FullName  string       `gorm:"size:100;not null" json:"full_name"`
	Phone     string       `gorm:"size:10;not null" json:"phone"`
	Address   string       `gorm:"size:255;not null" json:"address"`
	City      string       `gorm:"size:100;not null" json:"city"`
	State     string       `gorm:"size:100;not null" json:"state"`
	PinCode   string       `gorm:"size:6;not null" json:"pin_code"`
	Country   string       `gorm:"size:100;not null;default:'India'" json:"country"`
	IsDefault bool         `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(u.Email)
	return nil
}
