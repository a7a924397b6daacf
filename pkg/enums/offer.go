package enums

import (
	"fmt"
	"strings"
)

// OfferType scopes an offer to listed vendors or to every vendor.
type OfferType string

const (
	OfferTypeVendor  OfferType = "VENDOR"
	OfferTypeGeneric OfferType = "GENERIC"
)

var validOfferTypes = []OfferType{OfferTypeVendor, OfferTypeGeneric}

func (t OfferType) String() string {
	return string(t)
}

func (t OfferType) IsValid() bool {
	for _, candidate := range validOfferTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOfferType accepts any casing ("vendor", "GENERIC").
func ParseOfferType(value string) (OfferType, error) {
	if t := OfferType(strings.ToUpper(strings.TrimSpace(value))); t.IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("invalid offer type %q", value)
}

// PromoType describes who may redeem an offer.
type PromoType string

const (
	PromoTypeUser PromoType = "USER"
	PromoTypeBank PromoType = "BANK"
	PromoTypeCard PromoType = "CARD"
	PromoTypeAll  PromoType = "ALL"
)

var validPromoTypes = []PromoType{PromoTypeUser, PromoTypeBank, PromoTypeCard, PromoTypeAll}

func (p PromoType) String() string {
	return string(p)
}

func (p PromoType) IsValid() bool {
	for _, candidate := range validPromoTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// OncePerCustomer reports whether a customer may redeem the offer a single time.
func (p PromoType) OncePerCustomer() bool {
	return p == PromoTypeUser
}

// ParsePromoType accepts any casing.
func ParsePromoType(value string) (PromoType, error) {
	if p := PromoType(strings.ToUpper(strings.TrimSpace(value))); p.IsValid() {
		return p, nil
	}
	return "", fmt.Errorf("invalid promo type %q", value)
}
