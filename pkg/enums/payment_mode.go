package enums

import (
	"fmt"
	"strings"
)

// PaymentMode is how the customer intends to pay.
type PaymentMode string

const (
	PaymentModeCOD        PaymentMode = "COD"
	PaymentModeCard       PaymentMode = "CARD"
	PaymentModeUPI        PaymentMode = "UPI"
	PaymentModeNetBanking PaymentMode = "NETBANKING"
)

var validPaymentModes = []PaymentMode{
	PaymentModeCOD,
	PaymentModeCard,
	PaymentModeUPI,
	PaymentModeNetBanking,
}

func (m PaymentMode) String() string {
	return string(m)
}

func (m PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode; blank input means cash on delivery.
func ParsePaymentMode(value string) (PaymentMode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return PaymentModeCOD, nil
	}
	if mode := PaymentMode(trimmed); mode.IsValid() {
		return mode, nil
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
