package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/geo"
	"github.com/angelmondragon/foodhaul-backend/pkg/maps"
)

type stubMatrix struct {
	routes []maps.Route
	err    error
	calls  int
}

func (s *stubMatrix) DrivingDistances(_ context.Context, _ geo.Point, dests []geo.Point) ([]maps.Route, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.routes[:len(dests)], nil
}

func partnerAt(id string, lat, lng *float64) models.DeliveryUser {
	return models.DeliveryUser{ID: uuid.MustParse(id), Lat: lat, Lng: lng}
}

var origin = geo.Point{Lat: 12.9716, Lng: 77.5946}

func TestDistanceRankerOrdering(t *testing.T) {
	far := partnerAt("00000000-0000-0000-0000-000000000001", floatPtr(13.2), floatPtr(77.7))
	unknownB := partnerAt("00000000-0000-0000-0000-000000000003", nil, nil)
	unknownA := partnerAt("00000000-0000-0000-0000-000000000002", nil, nil)
	near := partnerAt("00000000-0000-0000-0000-000000000004", floatPtr(12.98), floatPtr(77.6))

	ranked, err := DistanceRanker{}.Rank(context.Background(), origin, []models.DeliveryUser{unknownB, far, unknownA, near})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{near.ID, far.ID, unknownA.ID, unknownB.ID}, ids(ranked))
}

func TestMapsRankerUsesDrivingDistance(t *testing.T) {
	// straight-line order is a, b; the road network reverses them
	a := partnerAt("00000000-0000-0000-0000-000000000001", floatPtr(12.972), floatPtr(77.595))
	b := partnerAt("00000000-0000-0000-0000-000000000002", floatPtr(12.98), floatPtr(77.60))
	none := partnerAt("00000000-0000-0000-0000-000000000003", nil, nil)
	matrix := &stubMatrix{routes: []maps.Route{{DistanceMeters: 9000, OK: true}, {DistanceMeters: 1200, OK: true}}}

	ranked, err := NewMapsRanker(matrix, nil).Rank(context.Background(), origin, []models.DeliveryUser{none, b, a})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID, none.ID}, ids(ranked))
	assert.Equal(t, 1, matrix.calls)
}

func TestMapsRankerUnroutableGoesLast(t *testing.T) {
	a := partnerAt("00000000-0000-0000-0000-000000000001", floatPtr(12.972), floatPtr(77.595))
	b := partnerAt("00000000-0000-0000-0000-000000000002", floatPtr(12.98), floatPtr(77.60))
	matrix := &stubMatrix{routes: []maps.Route{{OK: false}, {DistanceMeters: 5000, OK: true}}}

	ranked, err := NewMapsRanker(matrix, nil).Rank(context.Background(), origin, []models.DeliveryUser{a, b})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, ids(ranked))
}

func TestMapsRankerFallsBackOnError(t *testing.T) {
	a := partnerAt("00000000-0000-0000-0000-000000000001", floatPtr(12.972), floatPtr(77.595))
	b := partnerAt("00000000-0000-0000-0000-000000000002", floatPtr(12.98), floatPtr(77.60))
	matrix := &stubMatrix{err: errors.New("quota exceeded")}

	ranked, err := NewMapsRanker(matrix, nil).Rank(context.Background(), origin, []models.DeliveryUser{b, a})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(ranked))
}

func ids(users []models.DeliveryUser) []uuid.UUID {
	out := make([]uuid.UUID, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestRankerFromConfig(t *testing.T) {
	ranker, err := RankerFromConfig(config.FeatureFlagsConfig{MapsRanking: true}, config.GoogleMapsConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, DistanceRanker{}, ranker)

	ranker, err = RankerFromConfig(config.FeatureFlagsConfig{}, config.GoogleMapsConfig{APIKey: "key"}, nil)
	require.NoError(t, err)
	assert.IsType(t, DistanceRanker{}, ranker)

	ranker, err = RankerFromConfig(config.FeatureFlagsConfig{MapsRanking: true}, config.GoogleMapsConfig{APIKey: "key"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MapsRanker{}, ranker)
}
