package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a registered buyer. The cart lives in cart_items.
type Customer struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:ux_customers_email" json:"email"`
	Phone        string     `gorm:"column:phone;type:text;not null" json:"phone"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string     `gorm:"column:first_name;type:text" json:"firstName"`
	LastName     string     `gorm:"column:last_name;type:text" json:"lastName"`
	Address      string     `gorm:"column:address;type:text" json:"address"`
	Verified     bool       `gorm:"column:verified;not null;default:false" json:"verified"`
	OTP          string     `gorm:"column:otp;type:text" json:"-"`
	OTPExpiry    *time.Time `gorm:"column:otp_expiry" json:"-"`
	Lat          *float64   `gorm:"column:lat" json:"lat,omitempty"`
	Lng          *float64   `gorm:"column:lng" json:"lng,omitempty"`
	Version      int64      `gorm:"column:version;not null;default:1" json:"-"`
	CartItems    []CartItem `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// CartItem is one line of a customer's cart.
type CartItem struct {
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;primaryKey" json:"-"`
	FoodID     uuid.UUID `gorm:"column:food_id;type:uuid;primaryKey" json:"foodId"`
	Unit       int       `gorm:"column:unit;not null" json:"unit"`
	Food       *Food     `gorm:"foreignKey:FoodID;references:ID" json:"food,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
