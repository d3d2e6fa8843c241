package usecases

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
)

// Notable-point thresholds in meters.
const (
	nearestPointRadius   = 2000
	estimateSearchRadius = 5000
	unreliableDistance   = 3000
	mediumPrecisionAbove = 1000
	lowPrecisionAbove    = 2000
)

// HighwayPointService estimates kilometers from curated notable points
// (police posts, bridges, accesses) on federal highways.
type HighwayPointService struct {
	points ports.HighwayPointRepository
}

// NewHighwayPointService creates a new HighwayPointService.
func NewHighwayPointService(points ports.HighwayPointRepository) *HighwayPointService {
	return &HighwayPointService{points: points}
}

// NearestPoint returns the closest notable point within maxMeters, or
// domain.ErrNotFound. A non-positive maxMeters uses 2 km.
func (s *HighwayPointService) NearestPoint(ctx context.Context, p domain.GeoPoint, maxMeters float64) (*domain.HighwayPoint, error) {
	if maxMeters <= 0 {
		maxMeters = nearestPointRadius
	}
	pts, err := s.points.FindNearby(ctx, p, maxMeters, 1)
	if err != nil {
		return nil, fmt.Errorf("find nearby points: %w", err)
	}
	if len(pts) == 0 {
		return nil, domain.ErrNotFound
	}
	return &pts[0], nil
}

// EstimateKm interpolates between the two closest points on the highway of
// the nearest point within 5 km.
func (s *HighwayPointService) EstimateKm(ctx context.Context, p domain.GeoPoint) (*domain.HighwayPointEstimate, error) {
	nearest, err := s.NearestPoint(ctx, p, estimateSearchRadius)
	if err != nil {
		return nil, err
	}

	same, err := s.points.ListByBR(ctx, nearest.BR)
	if err != nil {
		return nil, fmt.Errorf("list points for BR-%s: %w", nearest.BR, err)
	}
	for i := range same {
		same[i].Distance = geospatial.Haversine(p.Lat, p.Lon, same[i].Location.Lat, same[i].Location.Lon)
	}
	sort.SliceStable(same, func(i, j int) bool { return same[i].Distance < same[j].Distance })

	single := &domain.HighwayPointEstimate{
		BR:        nearest.BR,
		Km:        nearest.Km,
		Precision: domain.PrecisionHigh,
		Distance:  math.Round(nearest.Distance),
		Nearest:   *nearest,
	}
	if len(same) < 2 {
		return single, nil
	}

	p1, p2 := same[0], same[1]
	if p1.Distance > unreliableDistance {
		single.Precision = domain.PrecisionLow
		return single, nil
	}

	ratio := 0.0
	if total := p1.Distance + p2.Distance; total > 0 {
		ratio = p1.Distance / total
	}

	precision := domain.PrecisionHigh
	switch {
	case p1.Distance > lowPrecisionAbove:
		precision = domain.PrecisionLow
	case p1.Distance > mediumPrecisionAbove:
		precision = domain.PrecisionMedium
	}

	return &domain.HighwayPointEstimate{
		BR:         nearest.BR,
		Km:         roundKm(p1.Km + (p2.Km-p1.Km)*ratio),
		Estimated:  true,
		Precision:  precision,
		Distance:   math.Round(p1.Distance),
		Nearest:    *nearest,
		References: []domain.HighwayPoint{p1, p2},
	}, nil
}

// Stats counts notable points per highway.
func (s *HighwayPointService) Stats(ctx context.Context) (map[string]int, error) {
	return s.points.Stats(ctx)
}
