package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order from placement through delivery.
type OrderStatus string

const (
	OrderStatusWaiting      OrderStatus = "waiting"
	OrderStatusAccepted     OrderStatus = "accepted"
	OrderStatusRejected     OrderStatus = "rejected"
	OrderStatusUnderProcess OrderStatus = "under-process"
	OrderStatusReady        OrderStatus = "ready"
	OrderStatusOnTheWay     OrderStatus = "on-the-way"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaiting,
	OrderStatusAccepted,
	OrderStatusRejected,
	OrderStatusUnderProcess,
	OrderStatusReady,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusWaiting:      {OrderStatusAccepted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusAccepted:     {OrderStatusUnderProcess, OrderStatusReady, OrderStatusCancelled},
	OrderStatusUnderProcess: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:        {OrderStatusOnTheWay, OrderStatusDelivered},
	OrderStatusOnTheWay:     {OrderStatusDelivered},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]
	return !ok
}

// CanTransitionTo reports whether next is reachable from s. Re-applying the current status is
// allowed so vendors can update remarks or ready time without moving the order.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return !s.IsTerminal()
	}
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ReleasesDelivery reports whether reaching s frees the assigned delivery partner.
func (s OrderStatus) ReleasesDelivery() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRejected
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
