package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a per-site publishing key. Only the SHA256 hash is stored.
type APIKey struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"site_id"`
	KeyHash    string     `gorm:"uniqueIndex;not null" json:"-"`
	Name       string     `json:"name"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relationships
	Site *Site `gorm:"foreignKey:SiteID" json:"-"`
}

// BeforeCreate hook to set UUID if not provided
func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (APIKey) TableName() string {
	return "api_keys"
}
