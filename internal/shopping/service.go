package shopping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

const (
	dataNotFound   = "Data Not found"
	topRestaurants = 3
	quickReadyTime = 30
)

type vendorCatalog interface {
	ListServiceable(ctx context.Context, pincode string, withFoods bool, limit int) ([]models.Vendor, error)
	FindWithFoods(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type foodCatalog interface {
	ListByVendors(ctx context.Context, vendorIDs []uuid.UUID, maxReadyTime int) ([]models.Food, error)
}

type offerCatalog interface {
	ListActiveByPincode(ctx context.Context, pincode string, now time.Time) ([]models.Offer, error)
}

// Service is the unauthenticated storefront: what can be ordered in a pincode right now.
type Service interface {
	Availability(ctx context.Context, pincode string) ([]models.Vendor, error)
	TopRestaurants(ctx context.Context, pincode string) ([]models.Vendor, error)
	FoodsIn30(ctx context.Context, pincode string) ([]models.Food, error)
	Search(ctx context.Context, pincode string) ([]models.Food, error)
	Offers(ctx context.Context, pincode string) ([]models.Offer, error)
	Restaurant(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type service struct {
	vendors vendorCatalog
	foods   foodCatalog
	offers  offerCatalog
	now     func() time.Time
}

func NewService(vendors vendorCatalog, foods foodCatalog, offers offerCatalog, now func() time.Time) (Service, error) {
	if vendors == nil {
		return nil, fmt.Errorf("vendor catalog required")
	}
	if foods == nil {
		return nil, fmt.Errorf("food catalog required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer catalog required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{vendors: vendors, foods: foods, offers: offers, now: now}, nil
}

func (s *service) Availability(ctx context.Context, pincode string) ([]models.Vendor, error) {
	return s.serviceable(ctx, pincode, true, 0)
}

func (s *service) TopRestaurants(ctx context.Context, pincode string) ([]models.Vendor, error) {
	return s.serviceable(ctx, pincode, true, topRestaurants)
}

func (s *service) FoodsIn30(ctx context.Context, pincode string) ([]models.Food, error) {
	return s.foodsFor(ctx, pincode, quickReadyTime)
}

func (s *service) Search(ctx context.Context, pincode string) ([]models.Food, error) {
	return s.foodsFor(ctx, pincode, 0)
}

func (s *service) Offers(ctx context.Context, pincode string) ([]models.Offer, error) {
	pincode, err := cleanPincode(pincode)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.ListActiveByPincode(ctx, pincode, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	if len(offers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, dataNotFound)
	}
	return offers, nil
}

func (s *service) Restaurant(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendors.FindWithFoods(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, dataNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return vendor, nil
}

func (s *service) serviceable(ctx context.Context, pincode string, withFoods bool, limit int) ([]models.Vendor, error) {
	pincode, err := cleanPincode(pincode)
	if err != nil {
		return nil, err
	}
	vendors, err := s.vendors.ListServiceable(ctx, pincode, withFoods, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	if len(vendors) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, dataNotFound)
	}
	return vendors, nil
}

func (s *service) foodsFor(ctx context.Context, pincode string, maxReadyTime int) ([]models.Food, error) {
	vendors, err := s.serviceable(ctx, pincode, false, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(vendors))
	for _, v := range vendors {
		ids = append(ids, v.ID)
	}
	foods, err := s.foods.ListByVendors(ctx, ids, maxReadyTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list foods")
	}
	if len(foods) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, dataNotFound)
	}
	return foods, nil
}

func cleanPincode(pincode string) (string, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}
	return pincode, nil
}
