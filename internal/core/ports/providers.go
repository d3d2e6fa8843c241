package ports

import (
	"context"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// ReverseGeocoder turns a coordinate into raw address fields.
// A nil place with a nil error means the provider had no match.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error)
}

// HighwayDataProvider returns numbered-highway geometry within wayRadius
// and milestone nodes within milestoneRadius, both in meters.
type HighwayDataProvider interface {
	HighwayData(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error)
}

// FeatureProvider returns named map features within radius meters.
type FeatureProvider interface {
	NearbyFeatures(ctx context.Context, p domain.GeoPoint, radius float64) ([]domain.MapFeature, error)
}

// PlaceSearcher searches places inside a +-delta degree box around p.
type PlaceSearcher interface {
	SearchNearby(ctx context.Context, p domain.GeoPoint, delta float64) ([]domain.SearchHit, error)
}

// KnowledgeGraph returns geolocated entities within radiusKm.
type KnowledgeGraph interface {
	NearbyEntities(ctx context.Context, p domain.GeoPoint, radiusKm float64) ([]domain.KnowledgeHit, error)
}
