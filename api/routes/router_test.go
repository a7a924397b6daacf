package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubShopping struct{}

func (stubShopping) Availability(context.Context, string) ([]models.Vendor, error) {
	return []models.Vendor{{Name: "Dosa Corner"}}, nil
}
func (stubShopping) TopRestaurants(context.Context, string) ([]models.Vendor, error) { return nil, nil }
func (stubShopping) FoodsIn30(context.Context, string) ([]models.Food, error)        { return nil, nil }
func (stubShopping) Search(context.Context, string) ([]models.Food, error)           { return nil, nil }
func (stubShopping) Offers(context.Context, string) ([]models.Offer, error)          { return nil, nil }
func (stubShopping) Restaurant(context.Context, uuid.UUID) (*models.Vendor, error)   { return nil, nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "foodhaul", ExpirationMinutes: 60},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Config:   testConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DB:       stubPinger{},
		Gatherer: reg,
		HTTP:     metrics.NewHTTPMetrics(reg),
		Shopping: stubShopping{},
	})
}

func bearer(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := auth.MintAccessToken(testConfig().JWT, time.Now(), auth.TokenPayload{
		Principal: auth.Principal{ID: uuid.New(), Role: role},
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(t)
	cases := []struct{ method, path string }{
		{http.MethodGet, "/admin/vendor"},
		{http.MethodGet, "/vendor/orders"},
		{http.MethodPost, "/customer/create-order"},
		{http.MethodPut, "/delivery/change-status"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestRoleGroupsRejectOtherRoles(t *testing.T) {
	router := testRouter(t)
	cases := []struct {
		path string
		role enums.Role
	}{
		{"/admin/transactions", enums.RoleVendor},
		{"/vendor/foods", enums.RoleCustomer},
		{"/customer/orders", enums.RoleDelivery},
		{"/delivery/orders", enums.RoleAdmin},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.role))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
	}
}

func TestShoppingIsPublicAndValidatesPincode(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shopping/400001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Dosa Corner"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shopping/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}
