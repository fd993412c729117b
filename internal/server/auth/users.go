// Package auth holds admin account and publishing key management.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// ErrOTPRequired is returned by Authenticate when the password matched but
// the account needs a second factor.
var ErrOTPRequired = errors.New("otp code required")

// UserService handles admin accounts.
type UserService struct {
	db   *gorm.DB
	totp *TOTPService
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB, totp *TOTPService) *UserService {
	if totp == nil {
		totp = NewTOTPService("")
	}
	return &UserService{
		db:   db,
		totp: totp,
	}
}

// Authenticate checks email, password and, when enabled on the account,
// the one-time code. Unknown emails, wrong passwords, wrong codes and
// disabled accounts all yield ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, email, password, otpCode string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrUnauthorized
		}
		return nil, pkgerrors.Wrap(err, "failed to query user")
	}

	if !utils.ComparePassword(user.Password, password) || !user.IsActive {
		return nil, pkgerrors.ErrUnauthorized
	}

	if user.TwoFactorEnabled {
		if otpCode == "" {
			return nil, ErrOTPRequired
		}
		if !s.totp.ValidateCode(user.TwoFactorSecret, otpCode) {
			return nil, pkgerrors.ErrUnauthorized
		}
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	return &user, nil
}

// EnsureUser creates the account if no user has the email yet. Existing
// accounts are left untouched.
func (s *UserService) EnsureUser(ctx context.Context, email, password, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, false, errors.New("email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(err, "failed to query user")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to hash password")
	}

	user = models.User{
		Email:    email,
		Password: hash,
		Name:     name,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to create user")
	}

	logger.InfoEvent().
		Str("email", email).
		Msg("Admin user created")

	return &user, true, nil
}

// BeginTwoFactor stores a fresh secret on the account and returns it with
// its otpauth URL. Login is unaffected until EnableTwoFactor succeeds.
func (s *UserService) BeginTwoFactor(ctx context.Context, userID uuid.UUID) (string, string, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if user.TwoFactorEnabled {
		return "", "", ErrTwoFactorEnabled
	}

	secret, url, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return "", "", err
	}

	if err := s.db.WithContext(ctx).Model(user).Update("two_factor_secret", secret).Error; err != nil {
		return "", "", pkgerrors.Wrap(err, "failed to save two-factor secret")
	}

	return secret, url, nil
}

// EnableTwoFactor turns on two-factor login once code matches the pending
// secret.
func (s *UserService) EnableTwoFactor(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotStarted
	}
	if !s.totp.ValidateCode(user.TwoFactorSecret, code) {
		return ErrInvalidOTP
	}

	if err := s.db.WithContext(ctx).Model(user).Update("two_factor_enabled", true).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to enable two-factor login")
	}

	logger.InfoEvent().
		Str("user_id", userID.String()).
		Msg("2FA enabled")
	return nil
}

// DisableTwoFactor turns two-factor login off after re-checking the password.
func (s *UserService) DisableTwoFactor(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.ComparePassword(user.Password, password) {
		return pkgerrors.ErrUnauthorized
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"two_factor_enabled": false,
		"two_factor_secret":  "",
	}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to disable two-factor login")
	}

	logger.InfoEvent().
		Str("user_id", userID.String()).
		Msg("2FA disabled")
	return nil
}

// Two-factor setup errors
var (
	ErrTwoFactorEnabled    = errors.New("two-factor login is already enabled")
	ErrTwoFactorNotStarted = errors.New("two-factor setup not initiated")
	ErrInvalidOTP          = errors.New("invalid otp code")
)
