package ports

import (
	"context"
	"time"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// EnrichmentJobRepository persists deferred enrichment jobs.
type EnrichmentJobRepository interface {
	Create(ctx context.Context, job *domain.EnrichmentJob) error
	GetByID(ctx context.Context, id string) (*domain.EnrichmentJob, error)
	MarkRunning(ctx context.Context, id string) error
	SaveResult(ctx context.Context, id string, info *domain.LocationInfo) error
	MarkFailed(ctx context.Context, id string, reason string) error
	// ListPending returns pending and failed jobs plus running jobs last
	// updated before staleBefore, oldest first.
	ListPending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.EnrichmentJob, error)
}

// HighwayPointRepository reads curated highway notable points.
type HighwayPointRepository interface {
	FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.HighwayPoint, error)
	ListByBR(ctx context.Context, br string) ([]domain.HighwayPoint, error)
	Stats(ctx context.Context) (map[string]int, error)
}
