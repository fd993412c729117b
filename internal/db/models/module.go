package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Module is one content block instance of a site. A site holds at most one
// instance per kind.
type Module struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_modules_site_kind" json:"site_id"`
	Kind         string         `gorm:"not null;uniqueIndex:idx_modules_site_kind" json:"kind"`
	Enabled      bool           `gorm:"not null" json:"enabled"`
	DisplayOrder int            `gorm:"not null;default:0" json:"display_order"`
	Content      datatypes.JSON `gorm:"type:json" json:"content"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// BeforeCreate hook to set a time-ordered UUID if not provided
func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}

// TableName specifies the table name
func (Module) TableName() string {
	return "modules"
}
