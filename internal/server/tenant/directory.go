// Package tenant maps hostnames to sites and manages sites and their root
// domains.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// Directory resolves hostnames to sites.
type Directory struct {
	db       *gorm.DB
	modules  *modules.Store
	stripWWW bool
}

// NewDirectory creates a tenant directory. Sites created through it get
// their default modules from store.
func NewDirectory(db *gorm.DB, store *modules.Store, stripWWW bool) *Directory {
	return &Directory{
		db:       db,
		modules:  store,
		stripWWW: stripWWW,
	}
}

// ResolveHost returns the active site bound to host. The port and letter
// case of host are ignored.
func (d *Directory) ResolveHost(ctx context.Context, host string) (*models.Site, error) {
	host = utils.NormalizeHost(host, d.stripWWW)
	if host == "" {
		return nil, pkgerrors.ErrSiteNotFound
	}

	var site models.Site
	err := d.db.WithContext(ctx).
		Where("full_domain = ? AND is_active = ?", host, true).
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrSiteNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to resolve host")
	}

	return &site, nil
}

// GetSite returns a site owned by userID, active or not.
func (d *Directory) GetSite(ctx context.Context, userID, siteID uuid.UUID) (*models.Site, error) {
	var site models.Site
	err := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", siteID, userID).
		Preload("Domain").
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrSiteNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get site")
	}

	return &site, nil
}

// ListSites lists the sites of a user, newest first.
func (d *Directory) ListSites(ctx context.Context, userID uuid.UUID) ([]models.Site, error) {
	var sites []models.Site
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Domain").
		Order("created_at DESC").
		Find(&sites).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list sites")
	}

	return sites, nil
}

// CreateSiteInput holds the fields of a new site.
type CreateSiteInput struct {
	DomainID  uuid.UUID `json:"domain_id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
}

// CreateSite creates a site under an active root domain together with its
// default configuration and one instance of every module kind.
func (d *Directory) CreateSite(ctx context.Context, userID uuid.UUID, in CreateSiteInput) (*models.Site, error) {
	subdomain := utils.NormalizeSubdomain(in.Subdomain)
	if !utils.IsValidSubdomain(subdomain) {
		return nil, pkgerrors.ErrInvalidSubdomain
	}
	if in.Name == "" {
		return nil, errors.New("site name is required")
	}

	cfg, err := siteconfig.Default(in.Name, time.Now().Year()).Encode()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode site config")
	}

	var site *models.Site
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var domain models.Domain
		if err := tx.Where("id = ?", in.DomainID).First(&domain).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.ErrDomainNotFound
			}
			return pkgerrors.Wrap(err, "failed to fetch domain")
		}
		if !domain.IsActive {
			return pkgerrors.ErrDomainInactive
		}

		site = &models.Site{
			UserID:     userID,
			DomainID:   domain.ID,
			Subdomain:  subdomain,
			FullDomain: utils.JoinHost(subdomain, domain.Domain),
			Name:       in.Name,
			IsActive:   true,
			Config:     datatypes.JSON(cfg),
		}
		if err := tx.Create(site).Error; err != nil {
			if db.IsDuplicateError(err) {
				return pkgerrors.ErrHostnameTaken
			}
			return pkgerrors.Wrap(err, "failed to create site")
		}
		site.Domain = &domain

		return d.modules.WithTx(tx).Seed(ctx, site.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoEvent().
		Str("site_id", site.ID.String()).
		Str("host", site.FullDomain).
		Msg("Site created")

	return site, nil
}

// UpdateSiteInput holds the editable fields of a site. Nil fields are left
// untouched; Config replaces the whole document.
type UpdateSiteInput struct {
	Name   *string         `json:"name"`
	Config json.RawMessage `json:"config"`
}

// UpdateSite applies in to a site owned by userID.
func (d *Directory) UpdateSite(ctx context.Context, userID, siteID uuid.UUID, in UpdateSiteInput) (*models.Site, error) {
	site, err := d.GetSite(ctx, userID, siteID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, errors.New("site name is required")
		}
		changes["name"] = *in.Name
		site.Name = *in.Name
	}
	if in.Config != nil {
		if !json.Valid(in.Config) {
			return nil, pkgerrors.ErrInvalidContent
		}
		changes["config"] = datatypes.JSON(in.Config)
		site.Config = datatypes.JSON(in.Config)
	}
	if len(changes) == 0 {
		return site, nil
	}

	if err := d.db.WithContext(ctx).Model(site).Updates(changes).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update site")
	}

	return site, nil
}

// SetActive enables or disables a site. A disabled site stops resolving on
// the next request; its data is kept.
func (d *Directory) SetActive(ctx context.Context, userID, siteID uuid.UUID, active bool) error {
	result := d.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("id = ? AND user_id = ?", siteID, userID).
		Update("is_active", active)

	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to update site")
	}

	if result.RowsAffected == 0 {
		return pkgerrors.ErrSiteNotFound
	}

	logger.InfoEvent().
		Str("site_id", siteID.String()).
		Bool("active", active).
		Msg("Site state changed")

	return nil
}
