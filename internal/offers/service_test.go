package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

type vendorsByID struct{ conn *gorm.DB }

func (v vendorsByID) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := v.conn.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

type fakeRedemptions struct{ used map[uuid.UUID]bool }

func (f fakeRedemptions) HasRedeemed(_ context.Context, _, offerID uuid.UUID) (bool, error) {
	return f.used[offerID], nil
}

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    Service
	repo   *Repository
	conn   *gorm.DB
	vendor auth.Principal
	used   map[uuid.UUID]bool
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	vendor := &models.Vendor{Name: "Spice Hut", OwnerName: "Asha", Pincode: "560001", Phone: "9876543210", Email: "v@spice.test", PasswordHash: "x"}
	require.NoError(t, conn.Create(vendor).Error)
	used := map[uuid.UUID]bool{}
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Vendors:     vendorsByID{conn: conn},
		Redemptions: fakeRedemptions{used: used},
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, conn: conn, vendor: auth.Principal{ID: vendor.ID, Role: enums.RoleVendor}, used: used}
}

func validInput() OfferInput {
	end := fixedNow.Add(24 * time.Hour)
	return OfferInput{
		Title:        "Flat 50",
		MinimumValue: decimal.NewFromInt(200),
		OfferAmount:  decimal.NewFromInt(50),
		EndValidity:  &end,
		Promocode:    "FLAT50",
		IsActive:     true,
	}
}

func TestVendorAddDefaultsScopeAndPincode(t *testing.T) {
	f := newFixture(t)
	offer, err := f.svc.Add(context.Background(), f.vendor, validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.OfferTypeVendor, offer.OfferType)
	assert.Equal(t, enums.PromoTypeAll, offer.PromoType)
	assert.Equal(t, "560001", offer.Pincode)
	assert.Equal(t, []uuid.UUID{f.vendor.ID}, offer.VendorIDs)
}

func TestListForVendorIncludesGeneric(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Add(context.Background(), f.vendor, validInput())
	require.NoError(t, err)

	admin := auth.Principal{ID: uuid.New(), Role: enums.RoleAdmin}
	generic := validInput()
	generic.Pincode = "560002"
	_, err = f.svc.Add(context.Background(), admin, generic)
	require.NoError(t, err)

	other := &models.Offer{OfferType: enums.OfferTypeVendor, VendorIDs: []uuid.UUID{uuid.New()}, Title: "x", Promocode: "x", PromoType: enums.PromoTypeAll, Pincode: "1", MinimumValue: decimal.Zero, OfferAmount: decimal.NewFromInt(1)}
	require.NoError(t, f.repo.Create(context.Background(), other))

	offers, err := f.svc.ListForVendor(context.Background(), f.vendor)
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}

func TestEditRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	offer, err := f.svc.Add(context.Background(), f.vendor, validInput())
	require.NoError(t, err)

	input := validInput()
	input.Title = "Flat 60"
	input.OfferAmount = decimal.NewFromInt(60)
	edited, err := f.svc.Edit(context.Background(), f.vendor, offer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Flat 60", edited.Title)
	assert.EqualValues(t, 2, edited.Version)

	stranger := auth.Principal{ID: uuid.New(), Role: enums.RoleVendor}
	_, err = f.svc.Edit(context.Background(), stranger, offer.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Edit(context.Background(), f.vendor, uuid.New(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestVerifyOffer(t *testing.T) {
	f := newFixture(t)
	customer := auth.Principal{ID: uuid.New(), Role: enums.RoleCustomer}

	input := validInput()
	input.PromoType = enums.PromoTypeUser
	offer, err := f.svc.Add(context.Background(), f.vendor, input)
	require.NoError(t, err)

	res, err := f.svc.Verify(context.Background(), customer, offer.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, offer.ID, res.Offer.ID)

	f.used[offer.ID] = true
	res, err = f.svc.Verify(context.Background(), customer, offer.ID)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	inactive := validInput()
	inactive.IsActive = false
	off, err := f.svc.Add(context.Background(), f.vendor, inactive)
	require.NoError(t, err)
	res, err = f.svc.Verify(context.Background(), customer, off.ID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestExpireStaleAndActiveForPincode(t *testing.T) {
	f := newFixture(t)
	live, err := f.svc.Add(context.Background(), f.vendor, validInput())
	require.NoError(t, err)

	expiredInput := validInput()
	past := fixedNow.Add(-time.Hour)
	start := fixedNow.Add(-48 * time.Hour)
	expiredInput.StartValidity = &start
	expiredInput.EndValidity = &past
	expired, err := f.svc.Add(context.Background(), f.vendor, expiredInput)
	require.NoError(t, err)

	active, err := f.svc.ActiveForPincode(context.Background(), "560001")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)

	n, err := f.svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := f.repo.FindByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.EqualValues(t, 2, stored.Version)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.OfferAmount = decimal.Zero
	_, err := f.svc.Add(context.Background(), f.vendor, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Add(context.Background(), auth.Principal{ID: uuid.New(), Role: enums.RoleCustomer}, validInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
