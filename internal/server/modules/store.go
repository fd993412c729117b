package modules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/pkg/decode"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

// Store reads and writes module instances.
type Store struct {
	db       *gorm.DB
	registry *Registry
}

// NewStore creates a module store
func NewStore(db *gorm.DB, registry *Registry) *Store {
	return &Store{db: db, registry: registry}
}

// WithTx returns a store bound to tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, registry: s.registry}
}

// ListBySite returns every module instance of a site in storage order.
func (s *Store) ListBySite(ctx context.Context, siteID uuid.UUID) ([]models.Module, error) {
	var mods []models.Module
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("id ASC").
		Find(&mods).Error
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return mods, nil
}

// Get returns the instance of kind for a site.
func (s *Store) Get(ctx context.Context, siteID uuid.UUID, kind string) (*models.Module, error) {
	var mod models.Module
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND kind = ?", siteID, kind).
		First(&mod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrModuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	return &mod, nil
}

// Update holds the changes applied to a module instance. Nil fields are
// left untouched; Content replaces the whole document.
type Update struct {
	Enabled      *bool
	DisplayOrder *int
	Content      json.RawMessage
}

// Update applies u to the instance of kind. A missing instance of a
// registered kind is created first; unknown kinds yield ErrModuleNotFound.
func (s *Store) Update(ctx context.Context, siteID uuid.UUID, kind string, u Update) (*models.Module, error) {
	if u.Content != nil && !json.Valid(u.Content) {
		return nil, pkgerrors.ErrInvalidContent
	}

	var out *models.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.WithTx(tx)
		mod, err := store.getOrCreate(ctx, siteID, kind)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if u.Enabled != nil {
			changes["enabled"] = *u.Enabled
			mod.Enabled = *u.Enabled
		}
		if u.DisplayOrder != nil {
			changes["display_order"] = *u.DisplayOrder
			mod.DisplayOrder = *u.DisplayOrder
		}
		if u.Content != nil {
			changes["content"] = datatypes.JSON(u.Content)
			mod.Content = datatypes.JSON(u.Content)
		}
		if len(changes) > 0 {
			if err := tx.Model(mod).Updates(changes).Error; err != nil {
				return fmt.Errorf("update module: %w", err)
			}
		}
		out = mod
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reorder assigns display orders 1..n following kinds. Kinds not listed
// keep their order.
func (s *Store) Reorder(ctx context.Context, siteID uuid.UUID, kinds []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, kind := range kinds {
			res := tx.Model(&models.Module{}).
				Where("site_id = ? AND kind = ?", siteID, kind).
				Update("display_order", i+1)
			if res.Error != nil {
				return fmt.Errorf("reorder modules: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", pkgerrors.ErrModuleNotFound, kind)
			}
		}
		return nil
	})
}

// Seed creates the default instances of every registered kind the site
// does not have yet.
func (s *Store) Seed(ctx context.Context, siteID uuid.UUID) error {
	existing, err := s.ListBySite(ctx, siteID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.Kind] = true
	}

	for _, seed := range s.registry.Seeds() {
		if have[seed.Kind] {
			continue
		}
		content, err := json.Marshal(seed.Content)
		if err != nil {
			return fmt.Errorf("encode default %s content: %w", seed.Kind, err)
		}
		mod := &models.Module{
			SiteID:       siteID,
			Kind:         seed.Kind,
			Enabled:      seed.Enabled,
			DisplayOrder: seed.DisplayOrder,
			Content:      datatypes.JSON(content),
		}
		if err := s.db.WithContext(ctx).Create(mod).Error; err != nil {
			return fmt.Errorf("seed module %s: %w", seed.Kind, err)
		}
	}
	return nil
}

// AppendItems appends items to the array stored under field in the
// document of kind, creating the instance from defaults when missing.
func (s *Store) AppendItems(ctx context.Context, siteID uuid.UUID, kind, field string, items []map[string]any) (*models.Module, error) {
	var out *models.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mod, err := s.WithTx(tx).getOrCreate(ctx, siteID, kind)
		if err != nil {
			return err
		}

		doc, err := decode.Object(mod.Content)
		if err != nil {
			return fmt.Errorf("%w: %v", pkgerrors.ErrInvalidContent, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}

		list, _ := doc[field].([]any)
		for _, it := range items {
			list = append(list, it)
		}
		doc[field] = list

		content, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode content: %w", err)
		}
		mod.Content = datatypes.JSON(content)
		if err := tx.Model(mod).Update("content", mod.Content).Error; err != nil {
			return fmt.Errorf("update module: %w", err)
		}
		out = mod
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) getOrCreate(ctx context.Context, siteID uuid.UUID, kind string) (*models.Module, error) {
	mod, err := s.Get(ctx, siteID, kind)
	if err == nil {
		return mod, nil
	}
	if !errors.Is(err, pkgerrors.ErrModuleNotFound) {
		return nil, err
	}

	def, ok := s.registry.Lookup(kind)
	if !ok {
		return nil, pkgerrors.ErrModuleNotFound
	}

	var maxOrder int
	if err := s.db.WithContext(ctx).Model(&models.Module{}).
		Where("site_id = ?", siteID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return nil, fmt.Errorf("next display order: %w", err)
	}

	content, err := json.Marshal(def.Default())
	if err != nil {
		return nil, fmt.Errorf("encode default content: %w", err)
	}
	mod = &models.Module{
		SiteID:       siteID,
		Kind:         kind,
		Enabled:      true,
		DisplayOrder: maxOrder + 1,
		Content:      datatypes.JSON(content),
	}
	if err := s.db.WithContext(ctx).Create(mod).Error; err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	return mod, nil
}
