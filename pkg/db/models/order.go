package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

// Order is created once per confirmed transaction. PaidAmount comes from the transaction and may
// differ from TotalAmount when an offer was applied at payment time.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber        string            `gorm:"column:order_number;type:text;not null;uniqueIndex:ux_orders_order_number" json:"orderId"`
	CustomerID         uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index:idx_orders_customer" json:"customerId"`
	VendorID           uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index:idx_orders_vendor" json:"vendorId"`
	TransactionID      uuid.UUID         `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex:ux_orders_transaction" json:"transactionId"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:decimal(12,2);not null" json:"totalAmount"`
	PaidAmount         decimal.Decimal   `gorm:"column:paid_amount;type:decimal(12,2);not null" json:"paidAmount"`
	OrderDate          time.Time         `gorm:"column:order_date;not null" json:"orderDate"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'waiting'" json:"orderStatus"`
	Remarks            string            `gorm:"column:remarks;type:text" json:"remarks"`
	DeliveryID         *uuid.UUID        `gorm:"column:delivery_id;type:uuid;index:idx_orders_delivery" json:"deliveryId"`
	ReadyTime          int               `gorm:"column:ready_time;not null" json:"readyTime"`
	AssignmentAttempts int               `gorm:"column:assignment_attempts;not null;default:0" json:"-"`
	LastAssignmentAt   *time.Time        `gorm:"column:last_assignment_at" json:"-"`
	Version            int64             `gorm:"column:version;not null;default:1" json:"-"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// OrderItem snapshots the unit price at placement time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:idx_order_items_order" json:"-"`
	FoodID    uuid.UUID       `gorm:"column:food_id;type:uuid;not null" json:"foodId"`
	Unit      int             `gorm:"column:unit;not null" json:"unit"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unitPrice"`
	Food      *Food           `gorm:"foreignKey:FoodID;references:ID" json:"food,omitempty"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
