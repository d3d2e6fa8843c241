package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

// ErrProvidersDown is returned by ResolveLocation so Temporal retries a
// resolution that reached no provider at all.
var ErrProvidersDown = errors.New("all location providers unavailable")

// EnrichmentActivities holds the activity implementations for the
// re-enrichment workflow.
type EnrichmentActivities struct {
	Enrichments *usecases.EnrichmentService
}

// LoadJob returns the job to enrich.
func (a *EnrichmentActivities) LoadJob(ctx context.Context, jobID string) (*domain.EnrichmentJob, error) {
	job, err := a.Enrichments.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return job, nil
}

// MarkRunning flags the job as in progress and counts the attempt.
func (a *EnrichmentActivities) MarkRunning(ctx context.Context, jobID string) error {
	return a.Enrichments.MarkRunning(ctx, jobID)
}

// MarkFailed records reason on a job whose result could not be saved.
func (a *EnrichmentActivities) MarkFailed(ctx context.Context, jobID, reason string) error {
	return a.Enrichments.MarkFailed(ctx, jobID, reason)
}

// ResolveLocation resolves address, highway and landmarks for p.
func (a *EnrichmentActivities) ResolveLocation(ctx context.Context, p domain.GeoPoint) (*domain.LocationInfo, error) {
	info := a.Enrichments.Locations().Resolve(ctx, p)
	if usecases.AllUnavailable(&info) {
		return nil, ErrProvidersDown
	}
	return &info, nil
}

// SaveResult stores info on the job and returns the resulting status.
func (a *EnrichmentActivities) SaveResult(ctx context.Context, jobID string, info *domain.LocationInfo) (domain.JobStatus, error) {
	return a.Enrichments.Record(ctx, jobID, info)
}

// PublishCompleted announces the finished job.
func (a *EnrichmentActivities) PublishCompleted(ctx context.Context, job *domain.EnrichmentJob, status domain.JobStatus, info *domain.LocationInfo) error {
	a.Enrichments.Announce(ctx, job, status, info)
	return nil
}
