package vendors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/pagination"
	"github.com/angelmondragon/foodhaul-backend/pkg/security"
)

var (
	testJWT   = config.JWTConfig{Secret: "secret", Issuer: "foodhaul-test", ExpirationMinutes: 60}
	testAdmin = auth.Principal{ID: uuid.New(), Role: enums.RoleAdmin}
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Hasher: security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}),
		JWT:    testJWT,
		Now:    time.Now,
	})
	require.NoError(t, err)
	return svc, repo
}

func createVendor(t *testing.T, svc Service, email string) auth.Principal {
	t.Helper()
	vendor, err := svc.Create(context.Background(), testAdmin, CreateVendorInput{
		Name:      "Spice Hut",
		OwnerName: "Asha",
		FoodTypes: []string{"veg"},
		Pincode:   "560001",
		Address:   "MG Road",
		Phone:     "9876543210",
		Email:     email,
		Password:  "secret1",
	})
	require.NoError(t, err)
	return auth.Principal{ID: vendor.ID, Role: enums.RoleVendor}
}

func TestCreateVendorDefaultsAndDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	principal := createVendor(t, svc, "Owner@Spice.test")

	vendor, err := svc.Get(context.Background(), testAdmin, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@spice.test", vendor.Email)
	assert.False(t, vendor.ServiceAvailable)
	assert.Zero(t, vendor.Rating)
	assert.NotEqual(t, "secret1", vendor.PasswordHash)

	_, err = svc.Create(context.Background(), testAdmin, CreateVendorInput{Email: "owner@spice.test", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(context.Background(), principal, CreateVendorInput{Email: "x@y.z", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestVendorLogin(t *testing.T) {
	svc, _ := newTestService(t)
	principal := createVendor(t, svc, "login@spice.test")

	res, err := svc.Login(context.Background(), "login@spice.test", "secret1")
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(testJWT, res.Token)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, claims.SubjectID)
	assert.Equal(t, enums.RoleVendor, claims.Role)

	_, err = svc.Login(context.Background(), "login@spice.test", "wrong")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Login(context.Background(), "nobody@spice.test", "secret1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestToggleServiceAndProfile(t *testing.T) {
	svc, _ := newTestService(t)
	principal := createVendor(t, svc, "toggle@spice.test")

	lat, lng := 12.97, 77.59
	vendor, err := svc.ToggleService(context.Background(), principal, ServiceToggleInput{Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.True(t, vendor.ServiceAvailable)
	require.NotNil(t, vendor.Lat)
	assert.InDelta(t, 12.97, *vendor.Lat, 1e-9)

	vendor, err = svc.ToggleService(context.Background(), principal, ServiceToggleInput{})
	require.NoError(t, err)
	assert.False(t, vendor.ServiceAvailable)

	bad := 200.0
	_, err = svc.ToggleService(context.Background(), principal, ServiceToggleInput{Lat: &lat, Lng: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	name := "Spice Hut Express"
	types := []string{"veg", "non-veg"}
	vendor, err = svc.UpdateProfile(context.Background(), principal, UpdateProfileInput{Name: &name, FoodTypes: &types})
	require.NoError(t, err)
	assert.Equal(t, name, vendor.Name)

	vendor, err = svc.UpdateCoverImages(context.Background(), principal, []string{"a.png", "b.png"})
	require.NoError(t, err)
	stored, err := svc.Profile(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, stored.CoverImages)
	assert.Equal(t, []string{"veg", "non-veg"}, stored.FoodTypes)
	assert.Equal(t, vendor.Version, stored.Version)
}

func TestUpdateDetectsStaleVersion(t *testing.T) {
	svc, repo := newTestService(t)
	principal := createVendor(t, svc, "stale@spice.test")

	first, err := repo.FindByID(context.Background(), principal.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(context.Background(), principal.ID)
	require.NoError(t, err)

	first.Name = "A"
	require.NoError(t, repo.Update(context.Background(), first, "name"))
	second.Name = "B"
	assert.Error(t, repo.Update(context.Background(), second, "name"))
}

func TestListVendorsPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		createVendor(t, svc, uuid.NewString()+"@spice.test")
	}
	page, err := svc.List(context.Background(), testAdmin, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	_, err = svc.List(context.Background(), testAdmin, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
