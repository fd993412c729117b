// Package blog serves the posts of a site and the publishing upsert.
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/utils"
)

// RelatedLimit is the number of posts suggested under an article.
const RelatedLimit = 3

// Publish actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Service handles post operations.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new blog service.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:  db,
		now: time.Now,
	}
}

func (s *Service) published(ctx context.Context, siteID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, models.PostStatusPublished).
		Order("published_at DESC").
		Order("id DESC")
}

// ListPublished returns the published posts of a site, newest first.
func (s *Service) ListPublished(ctx context.Context, siteID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	if err := s.published(ctx, siteID).Find(&posts).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list posts")
	}
	return posts, nil
}

// GetPublished returns a published post by slug.
func (s *Service) GetPublished(ctx context.Context, siteID uuid.UUID, slug string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND slug = ? AND status = ?", siteID, slug, models.PostStatusPublished).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrPostNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to get post")
	}
	return &post, nil
}

// ListByCategory returns the published posts of one category.
func (s *Service) ListByCategory(ctx context.Context, siteID uuid.UUID, category string) ([]models.Post, error) {
	var posts []models.Post
	if err := s.published(ctx, siteID).Where("category = ?", category).Find(&posts).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list posts")
	}
	return posts, nil
}

// ListByTag returns the published posts carrying tag. The LIKE clause
// narrows the scan on the tags column read as text, since postgres stores
// it as jsonb; membership is then checked exactly.
func (s *Service) ListByTag(ctx context.Context, siteID uuid.UUID, tag string) ([]models.Post, error) {
	encoded, err := json.Marshal(tag)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode tag")
	}
	pattern := "%" + utils.SanitizeLikePattern(string(encoded)) + "%"

	var candidates []models.Post
	err = s.published(ctx, siteID).
		Where("CAST(tags AS TEXT) LIKE ? ESCAPE '\\'", pattern).
		Find(&candidates).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list posts")
	}

	posts := candidates[:0]
	for _, p := range candidates {
		if slices.Contains([]string(p.Tags), tag) {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// Categories returns the distinct non-empty categories of published posts,
// sorted.
func (s *Service) Categories(ctx context.Context, siteID uuid.UUID) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("site_id = ? AND status = ? AND category <> ''", siteID, models.PostStatusPublished).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list categories")
	}
	return categories, nil
}

// Related returns up to RelatedLimit other published posts, newest first.
func (s *Service) Related(ctx context.Context, post *models.Post) ([]models.Post, error) {
	var posts []models.Post
	err := s.published(ctx, post.SiteID).
		Where("id <> ?", post.ID).
		Limit(RelatedLimit).
		Find(&posts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list related posts")
	}
	return posts, nil
}

// ListAll returns every post of a site, drafts included, newest first.
func (s *Service) ListAll(ctx context.Context, siteID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list posts")
	}
	return posts, nil
}

// PublishInput is a post pushed by an external publisher.
type PublishInput struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Content        string   `json:"content"`
	Excerpt        string   `json:"excerpt"`
	FeaturedImage  string   `json:"featured_image"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SEOKeywords    string   `json:"seo_keywords"`
	Status         string   `json:"status"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Author         string   `json:"author"`
}

// Validate checks the required fields and defaults the status.
func (in *PublishInput) Validate() error {
	if in.Title == "" || in.Slug == "" {
		return errors.New("missing required fields: title, slug")
	}
	if !utils.IsValidSlug(in.Slug) {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidSlug, in.Slug)
	}
	switch in.Status {
	case "":
		in.Status = models.PostStatusPublished
	case models.PostStatusDraft, models.PostStatusPublished:
	default:
		return fmt.Errorf("invalid status %q", in.Status)
	}
	return nil
}

// Upsert creates or replaces the post identified by (siteID, slug). A post
// keeps the time it was first published; unpublishing clears it.
func (s *Service) Upsert(ctx context.Context, siteID uuid.UUID, in PublishInput) (*models.Post, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	var (
		post   models.Post
		action string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("site_id = ? AND slug = ?", siteID, in.Slug).First(&post).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			post = models.Post{SiteID: siteID, Slug: in.Slug}
			action = ActionCreated
		case err != nil:
			return pkgerrors.Wrap(err, "failed to query post")
		default:
			action = ActionUpdated
		}

		s.apply(&post, in)

		if action == ActionCreated {
			if err := tx.Create(&post).Error; err != nil {
				if db.IsDuplicateError(err) {
					return fmt.Errorf("%w: %s", pkgerrors.ErrSlugTaken, in.Slug)
				}
				return pkgerrors.Wrap(err, "failed to create post")
			}
			return nil
		}
		if err := tx.Save(&post).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to update post")
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return &post, action, nil
}

func (s *Service) apply(post *models.Post, in PublishInput) {
	post.Title = in.Title
	post.Content = in.Content
	post.Excerpt = in.Excerpt
	post.FeaturedImage = in.FeaturedImage
	post.SEOTitle = in.SEOTitle
	post.SEODescription = in.SEODescription
	post.SEOKeywords = in.SEOKeywords
	post.Status = in.Status
	post.Category = in.Category
	post.Tags = datatypes.JSONSlice[string](in.Tags)
	post.Author = in.Author

	switch {
	case in.Status != models.PostStatusPublished:
		post.PublishedAt = nil
	case post.PublishedAt == nil:
		now := s.now()
		post.PublishedAt = &now
	}
}
