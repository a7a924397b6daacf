package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryUser is a delivery partner serving one pincode.
type DeliveryUser struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex:ux_delivery_users_email" json:"email"`
	Phone        string    `gorm:"column:phone;type:text;not null" json:"phone"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string    `gorm:"column:first_name;type:text" json:"firstName"`
	LastName     string    `gorm:"column:last_name;type:text" json:"lastName"`
	Address      string    `gorm:"column:address;type:text" json:"address"`
	Pincode      string    `gorm:"column:pincode;type:text;not null;index:idx_delivery_users_pool" json:"pincode"`
	Verified     bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	IsAvailable  bool      `gorm:"column:is_available;not null;default:false" json:"isAvailable"`
	Lat          *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Lng          *float64  `gorm:"column:lng" json:"lng,omitempty"`
	Version      int64     `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (d *DeliveryUser) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	if d.Version == 0 {
		d.Version = 1
	}
	return nil
}
