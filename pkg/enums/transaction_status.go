package enums

import (
	"fmt"
	"strings"
)

// TransactionStatus tracks a payment attempt from creation to order confirmation.
type TransactionStatus string

const (
	TransactionStatusOpen      TransactionStatus = "OPEN"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusOpen,
	TransactionStatusConfirmed,
	TransactionStatusFailed,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFailed compares case-insensitively; rows written by older clients carry "failed".
func (s TransactionStatus) IsFailed() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(TransactionStatusFailed))
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	normalized := TransactionStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
