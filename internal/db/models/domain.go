package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Domain represents a shared root domain that sites are created under
type Domain struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Domain    string    `gorm:"uniqueIndex;not null" json:"domain"` // lowercase, e.g. "example.com"
	Name      string    `json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID if not provided
func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (Domain) TableName() string {
	return "domains"
}
