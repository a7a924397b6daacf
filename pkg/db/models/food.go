package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Food is a menu item owned by exactly one vendor.
type Food struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VendorID    uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index:idx_foods_vendor" json:"vendorId"`
	Name        string          `gorm:"column:name;type:text;not null" json:"name"`
	Description string          `gorm:"column:description;type:text;not null" json:"description"`
	Category    string          `gorm:"column:category;type:text" json:"category"`
	FoodType    string          `gorm:"column:food_type;type:text;not null" json:"foodType"`
	ReadyTime   int             `gorm:"column:ready_time;not null;default:0" json:"readyTime"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Rating      float64         `gorm:"column:rating;not null;default:0" json:"rating"`
	Images      []string        `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (f *Food) BeforeCreate(*gorm.DB) error {
	assignID(&f.ID)
	return nil
}
