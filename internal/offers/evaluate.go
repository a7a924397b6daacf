package offers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

// InWindow reports whether now falls inside the offer's validity window. Open ends are unbounded.
func InWindow(offer *models.Offer, now time.Time) bool {
	if offer.StartValidity != nil && now.Before(*offer.StartValidity) {
		return false
	}
	if offer.EndValidity != nil && now.After(*offer.EndValidity) {
		return false
	}
	return true
}

// Evaluate applies offer to amount and returns what the customer pays. The payable amount never
// drops below zero.
func Evaluate(offer *models.Offer, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if offer == nil {
		return amount, nil
	}
	if !offer.IsActive || !InWindow(offer, now) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "offer is not valid")
	}
	if amount.LessThan(offer.MinimumValue) {
		shortfall := offer.MinimumValue.Sub(amount).Round(2)
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"Add order worth of Rs. %s or more to avail this offer", shortfall.StringFixed(2)).
			WithDetails(map[string]any{"shortfall": shortfall.StringFixed(2)})
	}
	payable := amount.Sub(offer.OfferAmount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}
	return payable.Round(2), nil
}
