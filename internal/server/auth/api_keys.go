package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// APIKeyService manages the per-site publishing keys.
type APIKeyService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(db *gorm.DB) *APIKeyService {
	return &APIKeyService{
		db:  db,
		now: time.Now,
	}
}

// CreateKey issues a key for siteID. The plaintext key is returned once;
// only its hash is stored.
func (s *APIKeyService) CreateKey(ctx context.Context, siteID uuid.UUID, name string) (*models.APIKey, string, error) {
	key, keyHash, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "failed to generate api key")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Default"
	}

	apiKey := &models.APIKey{
		SiteID:   siteID,
		KeyHash:  keyHash,
		Name:     name,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(apiKey).Error; err != nil {
		return nil, "", pkgerrors.Wrap(err, "failed to create api key")
	}

	return apiKey, key, nil
}

// ValidateKey resolves a plaintext key to its record with the site
// preloaded. Revoked keys and keys of deactivated sites are rejected.
func (s *APIKeyService) ValidateKey(ctx context.Context, key string) (*models.APIKey, error) {
	if key == "" {
		return nil, pkgerrors.ErrInvalidAPIKey
	}

	var apiKey models.APIKey
	err := s.db.WithContext(ctx).
		Where("key_hash = ? AND is_active = ?", utils.HashToken(key), true).
		Preload("Site").
		First(&apiKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrInvalidAPIKey
		}
		return nil, pkgerrors.Wrap(err, "failed to query api key")
	}

	if apiKey.Site == nil || !apiKey.Site.IsActive {
		return nil, pkgerrors.ErrInvalidAPIKey
	}

	now := s.now()
	apiKey.LastUsedAt = &now
	if err := s.db.WithContext(ctx).Model(&apiKey).Update("last_used_at", now).Error; err != nil {
		logger.WarnEvent().
			Err(err).
			Str("key_id", apiKey.ID.String()).
			Msg("Failed to record api key usage")
	}

	return &apiKey, nil
}

// RevokeKey deactivates a key of siteID.
func (s *APIKeyService) RevokeKey(ctx context.Context, siteID, keyID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND site_id = ?", keyID, siteID).
		Update("is_active", false)

	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to revoke api key")
	}

	if result.RowsAffected == 0 {
		return pkgerrors.ErrInvalidAPIKey
	}

	return nil
}

// ListKeys lists the keys of a site, newest first.
func (s *APIKeyService) ListKeys(ctx context.Context, siteID uuid.UUID) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list api keys")
	}

	return keys, nil
}
