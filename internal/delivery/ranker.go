package delivery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db/models"
	"github.com/angelmondragon/foodhaul-backend/pkg/geo"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/maps"
)

// maxRoutedCandidates matches the distance matrix per-request destination cap.
const maxRoutedCandidates = 25

// Ranker orders candidate partners, best first, relative to the pickup point.
type Ranker interface {
	Rank(ctx context.Context, origin geo.Point, candidates []models.DeliveryUser) ([]models.DeliveryUser, error)
}

// DistanceRanker sorts by straight-line distance. Partners without a location go last and ties
// fall back to id order so the ranking is deterministic.
type DistanceRanker struct{}

func (DistanceRanker) Rank(_ context.Context, origin geo.Point, candidates []models.DeliveryUser) ([]models.DeliveryUser, error) {
	type scored struct {
		user     models.DeliveryUser
		distance float64
		located  bool
	}
	rows := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		row := scored{user: c}
		if p, ok := geo.FromNullable(c.Lat, c.Lng); ok {
			row.distance = geo.DistanceMeters(origin, p)
			row.located = true
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.located != b.located {
			return a.located
		}
		if a.located && a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.user.ID.String() < b.user.ID.String()
	})
	out := make([]models.DeliveryUser, len(rows))
	for i, row := range rows {
		out[i] = row.user
	}
	return out, nil
}

// RankerFromConfig returns a MapsRanker when driving-distance ranking is switched on and a
// Maps key is configured, and DistanceRanker otherwise.
func RankerFromConfig(flags config.FeatureFlagsConfig, cfg config.GoogleMapsConfig, logg *logger.Logger) (Ranker, error) {
	if !flags.MapsRanking || strings.TrimSpace(cfg.APIKey) == "" {
		return DistanceRanker{}, nil
	}
	client, err := maps.NewClient(cfg.APIKey, maps.WithBaseURL(cfg.BaseURL), maps.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return NewMapsRanker(client, logg), nil
}

type distanceMatrix interface {
	DrivingDistances(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]maps.Route, error)
}

// MapsRanker sorts located partners by driving distance and falls back to DistanceRanker when
// the maps API is unavailable.
type MapsRanker struct {
	client   distanceMatrix
	fallback DistanceRanker
	logg     *logger.Logger
}

func NewMapsRanker(client distanceMatrix, logg *logger.Logger) *MapsRanker {
	return &MapsRanker{client: client, logg: logg}
}

func (r *MapsRanker) Rank(ctx context.Context, origin geo.Point, candidates []models.DeliveryUser) ([]models.DeliveryUser, error) {
	ordered, _ := r.fallback.Rank(ctx, origin, candidates)

	var located []models.DeliveryUser
	var points []geo.Point
	for _, c := range ordered {
		if len(points) == maxRoutedCandidates {
			break
		}
		if p, ok := geo.FromNullable(c.Lat, c.Lng); ok {
			located = append(located, c)
			points = append(points, p)
		}
	}
	if len(points) == 0 || r.client == nil {
		return ordered, nil
	}

	routes, err := r.client.DrivingDistances(ctx, origin, points)
	if err != nil || len(routes) != len(points) {
		if r.logg != nil {
			r.logg.Warn(ctx, "driving distance ranking unavailable, using straight-line order")
		}
		return ordered, nil
	}

	idx := make([]int, len(located))
	for i := range idx {
		idx[i] = i
	}
	// unroutable partners keep their straight-line position behind every routable one
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := routes[idx[i]], routes[idx[j]]
		if a.OK != b.OK {
			return a.OK
		}
		if a.OK {
			return a.DistanceMeters < b.DistanceMeters
		}
		return false
	})
	out := make([]models.DeliveryUser, 0, len(ordered))
	for _, i := range idx {
		out = append(out, located[i])
	}
	out = append(out, ordered[len(located):]...)
	return out, nil
}
