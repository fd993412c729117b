// Package catalog serves the per-site product catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// Service handles product operations.
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
	}
}

// ListActiveProducts returns the active products of a site, rank first and
// insertion order among equal ranks.
func (s *Service) ListActiveProducts(ctx context.Context, siteID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND is_active = ?", siteID, true).
		Order("rank ASC").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list products")
	}

	return products, nil
}

// GetProductBySlug returns an active product of a site.
func (s *Service) GetProductBySlug(ctx context.Context, siteID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND slug = ? AND is_active = ?", siteID, slug, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get product")
	}

	return &product, nil
}

// ListProducts returns every product of a site, inactive ones included.
func (s *Service) ListProducts(ctx context.Context, siteID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("rank ASC").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list products")
	}

	return products, nil
}

// GetProduct returns a product of a site by ID regardless of its state.
func (s *Service) GetProduct(ctx context.Context, siteID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND site_id = ?", productID, siteID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get product")
	}

	return &product, nil
}

// CreateProduct inserts p under siteID. An empty slug is derived from the
// name.
func (s *Service) CreateProduct(ctx context.Context, siteID uuid.UUID, p *models.Product) error {
	if err := prepare(siteID, p); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return translate(err, p.Slug, "failed to create product")
	}

	return nil
}

// UpdateProduct replaces every editable field of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, siteID, productID uuid.UUID, p *models.Product) (*models.Product, error) {
	existing, err := s.GetProduct(ctx, siteID, productID)
	if err != nil {
		return nil, err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := prepare(siteID, p); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, translate(err, p.Slug, "failed to update product")
	}

	return p, nil
}

// SetActive toggles a product. Inactive products disappear from the
// ranking, detail pages and the sitemap but stay editable.
func (s *Service) SetActive(ctx context.Context, siteID, productID uuid.UUID, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND site_id = ?", productID, siteID).
		Update("is_active", active)

	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to update product")
	}

	if result.RowsAffected == 0 {
		return pkgerrors.ErrProductNotFound
	}

	return nil
}

// ImportProducts inserts products in one transaction; a single bad row
// aborts the whole batch.
func (s *Service) ImportProducts(ctx context.Context, siteID uuid.UUID, products []models.Product) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range products {
			p := &products[i]
			if err := prepare(siteID, p); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("row %d: %w", i+1, translate(err, p.Slug, "failed to import product"))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(products), nil
}

func prepare(siteID uuid.UUID, p *models.Product) error {
	p.SiteID = siteID
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	if !utils.IsValidSlug(p.Slug) {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidSlug, p.Slug)
	}
	return nil
}

func translate(err error, slug, msg string) error {
	if db.IsDuplicateError(err) {
		return fmt.Errorf("%w: %s", pkgerrors.ErrSlugTaken, slug)
	}
	return pkgerrors.Wrap(err, msg)
}
