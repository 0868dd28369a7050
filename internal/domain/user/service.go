// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for a bad email/password pair without
// revealing which half was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles shopper account business logic
type Service struct {
	db        *gorm.DB
	config    *config.Config
	jwt       *auth.JWTManager
	passwords *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		jwt:       auth.NewJWTManager(cfg),
		passwords: auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest represents login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the signed token and the account it belongs to.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register creates a new shopper account and signs them in.
func (s *Service) Register(req *RegisterRequest) (*AuthResponse, error) {
	var existing User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("an account with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issueToken(&user)
}

// Login authenticates a shopper and returns a signed token.
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	s.db.Model(&user).Update("last_login_at", now)

	return s.issueToken(&user)
}

// GetUser retrieves an account by ID.
func (s *Service) GetUser(userID uint) (*User, error) {
	var user User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

func (s *Service) issueToken(user *User) (*AuthResponse, error) {
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile updates the shopper's own account details.
func (s *Service) UpdateProfile(userID uint, req *UpdateProfileRequest) (*User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		if !phoneShape.MatchString(req.Phone) {
			return nil, fmt.Errorf("phone must be a 10-digit number")
		}
		updates["phone"] = req.Phone
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return user, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := s.passwords.VerifyPassword(currentPassword, user.Password); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashed, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetUsers lists accounts for the admin console.
func (s *Service) GetUsers(page, limit int) ([]User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	err := s.db.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SetUserActive enables or disables an account. Disabled accounts cannot
// log in; their orders remain intact.
func (s *Service) SetUserActive(userID uint, active bool) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
