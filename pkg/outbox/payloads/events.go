package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
)

// OrderCreatedEvent is emitted in the placement transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	ItemCount     int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted when a vendor processes an order.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	VendorID   uuid.UUID         `json:"vendor_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Remarks    string            `json:"remarks,omitempty"`
	ReadyTime  int               `json:"ready_time"`
}

// DeliveryAssignedEvent tells the partner and customer who is carrying the order.
type DeliveryAssignedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	DeliveryID uuid.UUID `json:"delivery_id"`
	Attempt    int       `json:"attempt"`
}

// DeliveryUnassignedEvent records a failed attempt; the retry job will try again.
type DeliveryUnassignedEvent struct {
	OrderID  uuid.UUID              `json:"order_id"`
	VendorID uuid.UUID              `json:"vendor_id"`
	Reason   enums.AssignmentReason `json:"reason"`
	Attempt  int                    `json:"attempt"`
}

// TransactionFailedEvent is emitted when an open payment ages out.
type TransactionFailedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	OrderValue    decimal.Decimal `json:"order_value"`
	OpenedAt      time.Time       `json:"opened_at"`
	Reason        string          `json:"reason"`
}
