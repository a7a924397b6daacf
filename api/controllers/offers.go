package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/api/validators"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type offerRequest struct {
	OfferType     string          `json:"offerType" validate:"omitempty,oneof=VENDOR GENERIC vendor generic"`
	Title         string          `json:"title" validate:"required,min=2,max=80"`
	Description   string          `json:"description" validate:"max=500"`
	MinimumValue  decimal.Decimal `json:"minValue"`
	OfferAmount   decimal.Decimal `json:"offerAmount"`
	StartValidity *time.Time      `json:"startValidity"`
	EndValidity   *time.Time      `json:"endValidity"`
	Promocode     string          `json:"promocode" validate:"required,min=2,max=20"`
	PromoType     string          `json:"promoType" validate:"required"`
	Banks         []string        `json:"bank"`
	Bins          []int           `json:"bins"`
	Pincode       string          `json:"pincode" validate:"omitempty,len=6,numeric"`
	IsActive      *bool           `json:"isActive"`
}

func (o offerRequest) input() (offers.OfferInput, error) {
	promo, err := enums.ParsePromoType(o.PromoType)
	if err != nil {
		return offers.OfferInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid promo type").WithDetails(map[string]any{"field": "promoType"})
	}
	var offerType enums.OfferType
	if o.OfferType != "" {
		if offerType, err = enums.ParseOfferType(o.OfferType); err != nil {
			return offers.OfferInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid offer type").WithDetails(map[string]any{"field": "offerType"})
		}
	}
	active := true
	if o.IsActive != nil {
		active = *o.IsActive
	}
	return offers.OfferInput{
		OfferType:     offerType,
		Title:         o.Title,
		Description:   o.Description,
		MinimumValue:  o.MinimumValue,
		OfferAmount:   o.OfferAmount,
		StartValidity: o.StartValidity,
		EndValidity:   o.EndValidity,
		Promocode:     o.Promocode,
		PromoType:     promo,
		Banks:         o.Banks,
		Bins:          o.Bins,
		Pincode:       o.Pincode,
		IsActive:      active,
	}, nil
}

// AddOffer serves both the vendor and the admin surface; the service scopes the offer by role.
func AddOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body offerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Add(r.Context(), p, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, offer)
	}
}

func VendorEditOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body offerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Edit(r.Context(), p, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func VendorOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.ListForVendor(r.Context(), p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CustomerVerifyOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		verification, err := svc.Verify(r.Context(), p, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, verification)
	}
}

func (r *offerRequest) Sanitize() {
	r.Title = validators.SanitizeString(r.Title, 80)
	r.Description = validators.SanitizeString(r.Description, 500)
}
