package shopping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newShop(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(vendors.NewRepository(conn), foods.NewRepository(conn), offers.NewRepository(conn), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return svc, conn
}

func addVendor(t *testing.T, conn *gorm.DB, name, pincode string, rating float64, open bool) *models.Vendor {
	t.Helper()
	vendor := &models.Vendor{
		Name:             name,
		OwnerName:        "owner",
		Pincode:          pincode,
		Phone:            "1",
		Email:            uuid.NewString() + "@vendor.test",
		PasswordHash:     "x",
		ServiceAvailable: open,
		Rating:           rating,
	}
	require.NoError(t, conn.Create(vendor).Error)
	return vendor
}

func addFood(t *testing.T, conn *gorm.DB, vendorID uuid.UUID, name string, readyTime int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Food{VendorID: vendorID, Name: name, FoodType: "veg", ReadyTime: readyTime, Price: decimal.NewFromInt(50)}).Error)
}

func TestAvailabilityAndTopRestaurants(t *testing.T) {
	svc, conn := newShop(t)
	ctx := context.Background()
	for i, rating := range []float64{3.5, 4.8, 4.1, 2.0} {
		v := addVendor(t, conn, string(rune('A'+i)), "560001", rating, true)
		addFood(t, conn, v.ID, "meal", 20)
	}
	addVendor(t, conn, "Closed", "560001", 5, false)
	addVendor(t, conn, "Elsewhere", "110001", 5, true)

	all, err := svc.Availability(ctx, "560001")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 4.8, all[0].Rating)
	assert.Len(t, all[0].Foods, 1)

	top, err := svc.TopRestaurants(ctx, "560001")
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []float64{4.8, 4.1, 3.5}, []float64{top[0].Rating, top[1].Rating, top[2].Rating})

	_, err = svc.Availability(ctx, "999999")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, dataNotFound, pkgerrors.As(err).Message())
}

func TestFoodsIn30AndSearch(t *testing.T) {
	svc, conn := newShop(t)
	ctx := context.Background()
	open := addVendor(t, conn, "Open", "560001", 4, true)
	closed := addVendor(t, conn, "Closed", "560001", 4, false)
	addFood(t, conn, open.ID, "Quick", 15)
	addFood(t, conn, open.ID, "Slow", 50)
	addFood(t, conn, closed.ID, "Hidden", 10)

	quick, err := svc.FoodsIn30(ctx, "560001")
	require.NoError(t, err)
	require.Len(t, quick, 1)
	assert.Equal(t, "Quick", quick[0].Name)

	all, err := svc.Search(ctx, "560001")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOffersAndRestaurant(t *testing.T) {
	svc, conn := newShop(t)
	ctx := context.Background()
	vendor := addVendor(t, conn, "Open", "560001", 4, true)
	addFood(t, conn, vendor.ID, "Dosa", 10)
	end := fixedNow.Add(time.Hour)
	require.NoError(t, conn.Create(&models.Offer{
		OfferType:    enums.OfferTypeGeneric,
		Title:        "Flat 50",
		MinimumValue: decimal.NewFromInt(200),
		OfferAmount:  decimal.NewFromInt(50),
		EndValidity:  &end,
		Promocode:    "FLAT50",
		PromoType:    enums.PromoTypeAll,
		Pincode:      "560001",
		IsActive:     true,
	}).Error)

	offers, err := svc.Offers(ctx, "560001")
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	_, err = svc.Offers(ctx, "110001")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := svc.Restaurant(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Len(t, got.Foods, 1)

	_, err = svc.Restaurant(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Search(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
