// internal/domain/user/address_service.go
package user

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/agrovolt/backend/internal/config"
	"gorm.io/gorm"
)

var (
	phoneShape   = regexp.MustCompile(`^[0-9]{10}$`)
	pinCodeShape = regexp.MustCompile(`^[0-9]{6}$`)
)

// AddressService handles address-book business logic
type AddressService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, cfg *config.Config) *AddressService {
	return &AddressService{
		db:     db,
		config: cfg,
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Label     AddressLabel `json:"label" binding:"required,oneof=Home Work Office Other"`
	FullName  string       `json:"full_name" binding:"required"`
	Phone     string       `json:"phone" binding:"required"`
	Address   string       `json:"address" binding:"required"`
	City      string       `json:"city" binding:"required"`
	State     string       `json:"state" binding:"required"`
	PinCode   string       `json:"pin_code" binding:"required"`
	Country   string       `json:"country" binding:"required"`
	IsDefault bool         `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	Label     *AddressLabel `json:"label" binding:"omitempty,oneof=Home Work Office Other"`
	FullName  *string       `json:"full_name"`
	Phone     *string       `json:"phone"`
	Address   *string       `json:"address"`
	City      *string       `json:"city"`
	State     *string       `json:"state"`
	PinCode   *string       `json:"pin_code"`
	Country   *string       `json:"country"`
	IsDefault *bool         `json:"is_default"`
}

// GetUserAddresses retrieves the shopper's address book, default first.
func (s *AddressService) GetUserAddresses(userID uint) ([]Address, error) {
	var addresses []Address
	err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress retrieves a specific address owned by the shopper.
func (s *AddressService) GetAddress(userID, addressID uint) (*Address, error) {
	var address Address
	result := s.db.Where("id = ? AND user_id = ?", addressID, userID).First(&address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address not found")
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", result.Error)
	}
	return &address, nil
}

// GetDefaultAddress retrieves the shopper's default address, if any.
func (s *AddressService) GetDefaultAddress(userID uint) (*Address, error) {
	var address Address
	result := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no default address set")
		}
		return nil, fmt.Errorf("failed to retrieve default address: %w", result.Error)
	}
	return &address, nil
}

// CreateAddress creates a new address. Setting it default unsets any other
// default inside the same transaction, so at most one default exists per
// shopper at any time.
func (s *AddressService) CreateAddress(userID uint, req *CreateAddressRequest) (*Address, error) {
	if err := validateAddressFields(req.Phone, req.PinCode); err != nil {
		return nil, err
	}

	address := Address{
		UserID:    userID,
		Label:     req.Label,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		PinCode:   req.PinCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := s.unsetDefault(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

// UpdateAddress updates an existing address
func (s *AddressService) UpdateAddress(userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	address, err := s.GetAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	phone := address.Phone
	if req.Phone != nil {
		phone = *req.Phone
	}
	pinCode := address.PinCode
	if req.PinCode != nil {
		pinCode = *req.PinCode
	}
	if err := validateAddressFields(phone, pinCode); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PinCode != nil {
		updates["pin_code"] = *req.PinCode
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := s.unsetDefault(tx, userID); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAddress(userID, addressID)
}

// DeleteAddress removes an address from the shopper's book.
func (s *AddressService) DeleteAddress(userID, addressID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("address not found")
	}
	return nil
}

func (s *AddressService) unsetDefault(tx *gorm.DB, userID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}

func validateAddressFields(phone, pinCode string) error {
	if !phoneShape.MatchString(phone) {
		return fmt.Errorf("phone must be exactly 10 digits")
	}
	if !pinCodeShape.MatchString(pinCode) {
		return fmt.Errorf("pin code must be exactly 6 digits")
	}
	return nil
}
