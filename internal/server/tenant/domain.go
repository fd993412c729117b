package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// ListDomains returns every root domain, active or not.
func (d *Directory) ListDomains(ctx context.Context) ([]models.Domain, error) {
	var domains []models.Domain
	if err := d.db.WithContext(ctx).Order("domain ASC").Find(&domains).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list domains")
	}
	return domains, nil
}

// GetDomain returns a root domain by ID.
func (d *Directory) GetDomain(ctx context.Context, domainID uuid.UUID) (*models.Domain, error) {
	var domain models.Domain
	if err := d.db.WithContext(ctx).Where("id = ?", domainID).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrDomainNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get domain")
	}
	return &domain, nil
}

// CreateDomain registers a root domain, active.
func (d *Directory) CreateDomain(ctx context.Context, domain, name string) (*models.Domain, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if !utils.IsValidDomain(domain) {
		return nil, errors.New("invalid domain")
	}
	if name == "" {
		name = domain
	}

	record := &models.Domain{
		Domain:   domain,
		Name:     name,
		IsActive: true,
	}
	if err := d.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsDuplicateError(err) {
			return nil, pkgerrors.ErrDomainTaken
		}
		return nil, pkgerrors.Wrap(err, "failed to create domain")
	}

	return record, nil
}

// SetDomainActive toggles a root domain. Existing sites keep resolving;
// only new sites are refused under an inactive domain.
func (d *Directory) SetDomainActive(ctx context.Context, domainID uuid.UUID, active bool) error {
	result := d.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("id = ?", domainID).
		Update("is_active", active)

	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to update domain")
	}

	if result.RowsAffected == 0 {
		return pkgerrors.ErrDomainNotFound
	}

	return nil
}
