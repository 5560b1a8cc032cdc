package models

import (
	"time"

	"gorm.io/gorm"
)

// Property is the listing a post markets. Posts keep a reference, not a
// copy, so the property must still exist when content is generated.
type Property struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Title       string         `gorm:"not null;size:500" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Address     string         `gorm:"size:500" json:"address"`
	City        string         `gorm:"size:200;index" json:"city"`
	Price       float64        `json:"price"`
	Currency    string         `gorm:"size:10;default:'USD'" json:"currency"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	AreaSqm     float64        `json:"area_sqm"`
	Amenities   StringArray    `gorm:"type:text[]" json:"amenities"`
	PhotoKeys   StringArray    `gorm:"type:text[]" json:"photo_keys"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
