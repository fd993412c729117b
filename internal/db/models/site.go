package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Site represents a tenant microsite served on its own hostname
type Site struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	DomainID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"domain_id"`
	Subdomain  string         `gorm:"not null" json:"subdomain"`
	FullDomain string         `gorm:"uniqueIndex;not null" json:"full_domain"` // subdomain + "." + domain
	Name       string         `gorm:"not null" json:"name"`
	IsActive   bool           `gorm:"default:true;index" json:"is_active"`
	Config     datatypes.JSON `gorm:"type:json" json:"config"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	// Relationships
	Domain *Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

// BeforeCreate hook to set UUID if not provided
func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (Site) TableName() string {
	return "sites"
}

// BaseURL returns the canonical public URL of the site without a trailing slash.
func (s *Site) BaseURL(scheme string) string {
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + s.FullDomain
}
