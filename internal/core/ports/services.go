package ports

import (
	"context"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// EventPublisher publishes enrichment events to a message broker.
type EventPublisher interface {
	PublishEnrichmentRequested(ctx context.Context, event *domain.EnrichmentRequested) error
	PublishEnrichmentCompleted(ctx context.Context, event *domain.EnrichmentCompleted) error
}

// EventSubscriber subscribes to enrichment events from a message broker.
type EventSubscriber interface {
	SubscribeEnrichmentRequests(ctx context.Context, handler func(ctx context.Context, event *domain.EnrichmentRequested) error) error
}

// WorkflowStarter launches a durable re-enrichment for a job.
type WorkflowStarter interface {
	StartReenrichment(ctx context.Context, jobID string) (runID string, err error)
}
