package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor is a restaurant that owns foods and receives orders.
type Vendor struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"column:name;type:text;not null" json:"name"`
	OwnerName        string    `gorm:"column:owner_name;type:text;not null" json:"ownerName"`
	FoodTypes        []string  `gorm:"column:food_types;type:jsonb;serializer:json" json:"foodTypes"`
	Pincode          string    `gorm:"column:pincode;type:text;not null;index:idx_vendors_pincode" json:"pincode"`
	Address          string    `gorm:"column:address;type:text" json:"address"`
	Phone            string    `gorm:"column:phone;type:text;not null" json:"phone"`
	Email            string    `gorm:"column:email;type:text;not null;uniqueIndex:ux_vendors_email" json:"email"`
	PasswordHash     string    `gorm:"column:password_hash;not null" json:"-"`
	ServiceAvailable bool      `gorm:"column:service_available;not null;default:false" json:"serviceAvailable"`
	CoverImages      []string  `gorm:"column:cover_images;type:jsonb;serializer:json" json:"coverImages"`
	Rating           float64   `gorm:"column:rating;not null;default:0" json:"rating"`
	Lat              *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Lng              *float64  `gorm:"column:lng" json:"lng,omitempty"`
	Version          int64     `gorm:"column:version;not null;default:1" json:"-"`
	Foods            []Food    `gorm:"foreignKey:VendorID" json:"foods,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (v *Vendor) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	if v.Version == 0 {
		v.Version = 1
	}
	return nil
}
