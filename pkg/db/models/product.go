package models

import (
	"time"
)

// Product is a catalog listing as stored in the catalog database.
type Product struct {
	ID                   string     `gorm:"column:id;primaryKey" json:"id"`
	CategoryID           string     `gorm:"column:category_id;not null;index" json:"category_id"`
	Title                string     `gorm:"column:title;not null" json:"title"`
	PriceCents           int        `gorm:"column:price_cents;not null" json:"price_cents"`
	DiscountedPriceCents *int       `gorm:"column:discounted_price_cents" json:"discounted_price_cents,omitempty"`
	Stock                *int       `gorm:"column:stock" json:"stock,omitempty"`
	Rating               float64    `gorm:"column:rating;not null;default:0" json:"rating"`
	ReviewCount          int        `gorm:"column:review_count;not null;default:0" json:"review_count"`
	ImageURL             string     `gorm:"column:image_url" json:"image_url,omitempty"`
	IsActive             bool       `gorm:"column:is_active;not null" json:"is_active"`
	ListedAt             *time.Time `gorm:"column:listed_at" json:"listed_at,omitempty"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Product) TableName() string {
	return "catalog_products"
}
