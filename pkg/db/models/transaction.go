package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

// NoOfferUsed is stored in offer_used when the payment carried no offer.
const NoOfferUsed = "NA"

// Transaction records a payment attempt. VendorID and OrderID are filled on confirmation.
type Transaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID      uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index:idx_transactions_customer" json:"customerId"`
	VendorID        *uuid.UUID              `gorm:"column:vendor_id;type:uuid" json:"vendorId"`
	OrderID         *uuid.UUID              `gorm:"column:order_id;type:uuid" json:"orderId"`
	OrderValue      decimal.Decimal         `gorm:"column:order_value;type:decimal(12,2);not null" json:"orderValue"`
	OfferUsed       string                  `gorm:"column:offer_used;type:text;not null;default:'NA'" json:"offerUsed"`
	Status          enums.TransactionStatus `gorm:"column:status;type:text;not null;index:idx_transactions_status" json:"status"`
	PaymentMode     enums.PaymentMode       `gorm:"column:payment_mode;type:text;not null" json:"paymentMode"`
	PaymentResponse string                  `gorm:"column:payment_response;type:text" json:"paymentResponse"`
	Version         int64                   `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}
