package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Hasher: security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}),
		JWT:    testJWT,
		Now:    time.Now,
	})
	require.NoError(t, err)
	return svc, conn
}

func register(t *testing.T, svc Service, email string) auth.Principal {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Phone:    "9000000000",
		Password: "secret1",
		Pincode:  "560001",
	})
	require.NoError(t, err)
	return auth.Principal{ID: res.Partner.ID, Role: enums.RoleDelivery}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	principal := register(t, svc, "Rider@Fast.test")

	profile, err := svc.Profile(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, "rider@fast.test", profile.Email)
	assert.False(t, profile.Verified)
	assert.False(t, profile.IsAvailable)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "rider@fast.test", Password: "secret1", Pincode: "560001"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Register(context.Background(), RegisterInput{Email: "other@fast.test", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err := svc.Login(context.Background(), "rider@fast.test", "secret1")
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(testJWT, res.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleDelivery, claims.Principal().Role)
	assert.Equal(t, principal.ID, claims.Principal().ID)

	_, err = svc.Login(context.Background(), "rider@fast.test", "wrong")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Login(context.Background(), "missing@fast.test", "secret1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestChangeStatusTogglesAvailability(t *testing.T) {
	svc, _ := newTestService(t)
	principal := register(t, svc, "toggle@fast.test")

	user, err := svc.ChangeStatus(context.Background(), principal, StatusInput{Lat: floatPtr(12.97), Lng: floatPtr(77.59)})
	require.NoError(t, err)
	assert.True(t, user.IsAvailable)
	require.NotNil(t, user.Lat)
	assert.InDelta(t, 12.97, *user.Lat, 1e-9)

	user, err = svc.ChangeStatus(context.Background(), principal, StatusInput{})
	require.NoError(t, err)
	assert.False(t, user.IsAvailable)
	assert.NotNil(t, user.Lat)

	_, err = svc.ChangeStatus(context.Background(), principal, StatusInput{Lat: floatPtr(12.97)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.ChangeStatus(context.Background(), principal, StatusInput{Lat: floatPtr(95), Lng: floatPtr(0)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ChangeStatus(context.Background(), testAdmin, StatusInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestAdminVerifyAndList(t *testing.T) {
	svc, _ := newTestService(t)
	principal := register(t, svc, "verify@fast.test")
	register(t, svc, "second@fast.test")

	user, err := svc.Verify(context.Background(), testAdmin, principal.ID, true)
	require.NoError(t, err)
	assert.True(t, user.Verified)

	_, err = svc.Verify(context.Background(), principal, principal.ID, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.Verify(context.Background(), testAdmin, uuid.New(), true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	page, err := svc.List(context.Background(), testAdmin, pagination.Params{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.NotEmpty(t, page.NextCursor)

	_, err = svc.List(context.Background(), testAdmin, pagination.Params{Cursor: "garbage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOrdersListsAssignedOnly(t *testing.T) {
	svc, conn := newTestService(t)
	principal := register(t, svc, "orders@fast.test")
	vendor := seedVendor(t, conn, "560001", nil, nil)
	mine := seedOrder(t, conn, vendor.ID)
	seedOrder(t, conn, vendor.ID)
	require.NoError(t, conn.Model(mine).Update("delivery_id", principal.ID).Error)

	orders, err := svc.Orders(context.Background(), principal)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)
}
