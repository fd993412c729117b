package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post is a blog article of a site
type Post struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID         uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_posts_site_slug;index:idx_posts_site_status,priority:1" json:"site_id"`
	Slug           string                      `gorm:"not null;uniqueIndex:idx_posts_site_slug" json:"slug"`
	Title          string                      `gorm:"not null" json:"title"`
	Content        string                      `json:"content"`
	Excerpt        string                      `json:"excerpt"`
	FeaturedImage  string                      `json:"featured_image"`
	SEOTitle       string                      `gorm:"column:seo_title" json:"seo_title"`
	SEODescription string                      `gorm:"column:seo_description" json:"seo_description"`
	SEOKeywords    string                      `gorm:"column:seo_keywords" json:"seo_keywords"`
	Status         string                      `gorm:"not null;default:'draft';index:idx_posts_site_status,priority:2" json:"status"`
	Category       string                      `gorm:"index" json:"category"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	Author         string                      `json:"author"`
	PublishedAt    *time.Time                  `json:"published_at"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// BeforeCreate hook to set a time-ordered UUID if not provided
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		p.ID = id
	}
	return nil
}

// TableName specifies the table name
func (Post) TableName() string {
	return "posts"
}

// IsPublished reports whether the post is externally visible
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
