package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

type offerRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Offer, error)
	ListActiveByPincode(ctx context.Context, pincode string, now time.Time) ([]models.Offer, error)
	Update(ctx context.Context, offer *models.Offer, columns ...string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type vendorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// RedemptionChecker answers whether a customer already spent a once-per-customer offer.
type RedemptionChecker interface {
	HasRedeemed(ctx context.Context, customerID, offerID uuid.UUID) (bool, error)
}

// Service manages offers for vendors and admins and checks them for customers.
type Service interface {
	ListForVendor(ctx context.Context, principal auth.Principal) ([]models.Offer, error)
	Add(ctx context.Context, principal auth.Principal, input OfferInput) (*models.Offer, error)
	Edit(ctx context.Context, principal auth.Principal, id uuid.UUID, input OfferInput) (*models.Offer, error)
	Verify(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Verification, error)
	ActiveForPincode(ctx context.Context, pincode string) ([]models.Offer, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// OfferInput is the writable shape of an offer.
type OfferInput struct {
	OfferType     enums.OfferType
	Title         string
	Description   string
	MinimumValue  decimal.Decimal
	OfferAmount   decimal.Decimal
	StartValidity *time.Time
	EndValidity   *time.Time
	Promocode     string
	PromoType     enums.PromoType
	Banks         []string
	Bins          []int
	Pincode       string
	IsActive      bool
}

// Verification is the customer-facing answer for a single offer.
type Verification struct {
	Valid bool          `json:"valid"`
	Offer *models.Offer `json:"offer,omitempty"`
}

// ServiceParams bundles the offer service dependencies.
type ServiceParams struct {
	Repo        offerRepository
	Vendors     vendorLookup
	Redemptions RedemptionChecker
	Now         func() time.Time
}

type service struct {
	repo        offerRepository
	vendors     vendorLookup
	redemptions RedemptionChecker
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendor lookup required")
	}
	if params.Redemptions == nil {
		return nil, fmt.Errorf("redemption checker required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, vendors: params.Vendors, redemptions: params.Redemptions, now: now}, nil
}

func (s *service) ListForVendor(ctx context.Context, principal auth.Principal) ([]models.Offer, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	offers, err := s.repo.ListForVendor(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return offers, nil
}

// Add creates an offer. Vendors create offers scoped to themselves with their pincode as the
// default; admins create GENERIC offers.
func (s *service) Add(ctx context.Context, principal auth.Principal, input OfferInput) (*models.Offer, error) {
	offer := &models.Offer{VendorIDs: []uuid.UUID{}}
	switch {
	case principal.Is(enums.RoleVendor):
		vendor, err := s.vendors.FindByID(ctx, principal.ID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if input.OfferType == "" {
			input.OfferType = enums.OfferTypeVendor
		}
		if strings.TrimSpace(input.Pincode) == "" {
			input.Pincode = vendor.Pincode
		}
		offer.VendorIDs = []uuid.UUID{vendor.ID}
	case principal.Is(enums.RoleAdmin):
		input.OfferType = enums.OfferTypeGeneric
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin access required")
	}
	if err := applyInput(offer, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return offer, nil
}

func (s *service) Edit(ctx context.Context, principal auth.Principal, id uuid.UUID, input OfferInput) (*models.Offer, error) {
	if !principal.Is(enums.RoleVendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.OfferType == enums.OfferTypeGeneric || !offer.AppliesToVendor(principal.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer belongs to another vendor")
	}
	if input.OfferType == "" {
		input.OfferType = offer.OfferType
	}
	if strings.TrimSpace(input.Pincode) == "" {
		input.Pincode = offer.Pincode
	}
	if err := applyInput(offer, input); err != nil {
		return nil, err
	}
	err = s.repo.Update(ctx, offer,
		"offer_type", "title", "description", "minimum_value", "offer_amount", "start_validity",
		"end_validity", "promocode", "promo_type", "banks", "bins", "pincode", "is_active")
	if err != nil {
		if errors.Is(err, db.ErrStaleVersion) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offer was modified concurrently, retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
	}
	return offer, nil
}

// Verify tells a customer whether an offer can be used right now. A USER promo already redeemed
// by this customer is reported as invalid rather than as an error.
func (s *service) Verify(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Verification, error) {
	if !principal.Is(enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer access required")
	}
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.IsActive || !InWindow(offer, s.now()) {
		return &Verification{Valid: false}, nil
	}
	if offer.PromoType.OncePerCustomer() {
		used, err := s.redemptions.HasRedeemed(ctx, principal.ID, offer.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check redemption")
		}
		if used {
			return &Verification{Valid: false}, nil
		}
	}
	return &Verification{Valid: true, Offer: offer}, nil
}

func (s *service) ActiveForPincode(ctx context.Context, pincode string) ([]models.Offer, error) {
	offers, err := s.repo.ListActiveByPincode(ctx, strings.TrimSpace(pincode), s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return offers, nil
}

// ExpireStale deactivates offers past their end of validity.
func (s *service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire offers")
	}
	return n, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

func applyInput(offer *models.Offer, input OfferInput) error {
	if !input.OfferType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid offer type")
	}
	if input.PromoType == "" {
		input.PromoType = enums.PromoTypeAll
	}
	if !input.PromoType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promo type")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.MinimumValue.IsNegative() || !input.OfferAmount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer amount must be positive and minimum value non-negative")
	}
	if input.StartValidity != nil && input.EndValidity != nil && input.EndValidity.Before(*input.StartValidity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "endValidity precedes startValidity")
	}
	if strings.TrimSpace(input.Pincode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}
	banks, bins := input.Banks, input.Bins
	if banks == nil {
		banks = []string{}
	}
	if bins == nil {
		bins = []int{}
	}
	offer.OfferType = input.OfferType
	offer.Title = strings.TrimSpace(input.Title)
	offer.Description = strings.TrimSpace(input.Description)
	offer.MinimumValue = input.MinimumValue.Round(2)
	offer.OfferAmount = input.OfferAmount.Round(2)
	offer.StartValidity = input.StartValidity
	offer.EndValidity = input.EndValidity
	offer.Promocode = strings.TrimSpace(input.Promocode)
	offer.PromoType = input.PromoType
	offer.Banks = banks
	offer.Bins = bins
	offer.Pincode = strings.TrimSpace(input.Pincode)
	offer.IsActive = input.IsActive
	return nil
}
