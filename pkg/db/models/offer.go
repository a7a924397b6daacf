package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

// Offer is a flat discount either scoped to VendorIDs or GENERIC across all vendors.
type Offer struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OfferType     enums.OfferType `gorm:"column:offer_type;type:text;not null" json:"offerType"`
	VendorIDs     []uuid.UUID     `gorm:"column:vendor_ids;type:jsonb;serializer:json" json:"vendors"`
	Title         string          `gorm:"column:title;type:text;not null" json:"title"`
	Description   string          `gorm:"column:description;type:text" json:"description"`
	MinimumValue  decimal.Decimal `gorm:"column:minimum_value;type:decimal(12,2);not null" json:"minimumValue"`
	OfferAmount   decimal.Decimal `gorm:"column:offer_amount;type:decimal(12,2);not null" json:"offerAmount"`
	StartValidity *time.Time      `gorm:"column:start_validity" json:"startValidity"`
	EndValidity   *time.Time      `gorm:"column:end_validity" json:"endValidity"`
	Promocode     string          `gorm:"column:promocode;type:text;not null" json:"promocode"`
	PromoType     enums.PromoType `gorm:"column:promo_type;type:text;not null" json:"promotype"`
	Banks         []string        `gorm:"column:banks;type:jsonb;serializer:json" json:"bank"`
	Bins          []int           `gorm:"column:bins;type:jsonb;serializer:json" json:"bins"`
	Pincode       string          `gorm:"column:pincode;type:text;not null;index:idx_offers_pincode" json:"pincode"`
	IsActive      bool            `gorm:"column:is_active;not null;default:false" json:"isActive"`
	Version       int64           `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// AppliesToVendor reports whether the offer can be used against vendorID.
func (o *Offer) AppliesToVendor(vendorID uuid.UUID) bool {
	if o.OfferType == enums.OfferTypeGeneric {
		return true
	}
	for _, id := range o.VendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}
