package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Price is the pricing block of a product
type Price struct {
	Original float64 `json:"original"`
	Current  float64 `json:"current"`
	Currency string  `json:"currency"`
}

// Images holds the main picture and the gallery of a product
type Images struct {
	Main    string   `json:"main"`
	Gallery []string `json:"gallery"`
}

// Spec is a label/value specification row
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Material describes one layer of the product
type Material struct {
	Layer       string `json:"layer"`
	Description string `json:"description"`
}

// Score is a labelled sub-score out of 10
type Score struct {
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
}

// FAQ is a question/answer pair
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Product is one ranked catalog entry of a site
type Product struct {
	ID            uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	SiteID        uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_products_site_slug;index:idx_products_site_rank,priority:1" json:"site_id"`
	Rank          int                           `gorm:"not null;default:0;index:idx_products_site_rank,priority:2" json:"rank"`
	Slug          string                        `gorm:"not null;uniqueIndex:idx_products_site_slug" json:"slug"`
	Name          string                        `gorm:"not null" json:"name"`
	Badge         string                        `json:"badge"`
	Tagline       string                        `json:"tagline"`
	Price         datatypes.JSONType[Price]     `json:"price"`
	Rating        float64                       `json:"rating"`
	Images        datatypes.JSONType[Images]    `json:"images"`
	Specs         datatypes.JSONSlice[Spec]     `json:"specs"`
	BestFor       datatypes.JSONSlice[string]   `json:"best_for"`
	NotBestFor    datatypes.JSONSlice[string]   `json:"not_best_for"`
	BriefReview   string                        `json:"brief_review"`
	FullReview    string                        `json:"full_review"`
	Materials     datatypes.JSONSlice[Material] `json:"materials"`
	Scores        datatypes.JSONSlice[Score]    `json:"scores"`
	Pros          datatypes.JSONSlice[string]   `json:"pros"`
	Cons          datatypes.JSONSlice[string]   `json:"cons"`
	FAQs          datatypes.JSONSlice[FAQ]      `gorm:"column:faqs" json:"faqs"`
	AffiliateLink string                        `json:"affiliate_link"`
	CTAText       string                        `gorm:"column:cta_text" json:"cta_text"`
	ShowInRanking bool                          `gorm:"not null" json:"show_in_ranking"`
	IsActive      bool                          `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// BeforeCreate hook to set a time-ordered UUID if not provided
func (p *Product) BeforeCreate(tx *gorm.DB) error {
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
func (Product) TableName() string {
	return "products"
}
