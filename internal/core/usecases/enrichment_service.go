package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// ErrInvalidPoint is returned for NaN or out-of-range coordinates.
var ErrInvalidPoint = errors.New("invalid coordinate")

// ErrWorkflowsDisabled is returned by Rerun when no workflow engine is wired.
var ErrWorkflowsDisabled = errors.New("re-enrichment workflows are not configured")

// ErrJobRunning is returned by Rerun while the job is being resolved.
var ErrJobRunning = errors.New("job is already running")

// DefaultStaleAfter is how long a job may stay running without an update
// before it is treated as abandoned and becomes eligible for a rerun.
const DefaultStaleAfter = 30 * time.Minute

// EnrichmentService manages deferred enrichment of captures.
type EnrichmentService struct {
	jobs       ports.EnrichmentJobRepository
	locations  *LocationService
	events     ports.EventPublisher
	workflows  ports.WorkflowStarter
	staleAfter time.Duration
}

// NewEnrichmentService creates a new EnrichmentService. events and
// workflows may be nil.
func NewEnrichmentService(
	jobs ports.EnrichmentJobRepository,
	locations *LocationService,
	events ports.EventPublisher,
	workflows ports.WorkflowStarter,
) *EnrichmentService {
	return &EnrichmentService{
		jobs:       jobs,
		locations:  locations,
		events:     events,
		workflows:  workflows,
		staleAfter: DefaultStaleAfter,
	}
}

// SetStaleAfter overrides DefaultStaleAfter. Non-positive values are ignored.
func (s *EnrichmentService) SetStaleAfter(d time.Duration) {
	if d > 0 {
		s.staleAfter = d
	}
}

// Create stores a pending job and announces it. A failed publish leaves
// the job pending for the periodic sweep.
func (s *EnrichmentService) Create(ctx context.Context, captureID string, p domain.GeoPoint) (*domain.EnrichmentJob, error) {
	if captureID == "" {
		return nil, fmt.Errorf("capture_id must not be empty")
	}
	if !p.Valid() {
		return nil, ErrInvalidPoint
	}

	now := time.Now().UTC()
	job := &domain.EnrichmentJob{
		ID:        uuid.NewString(),
		CaptureID: captureID,
		Point:     p,
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.events != nil {
		ev := &domain.EnrichmentRequested{JobID: job.ID, CaptureID: captureID, Point: p}
		if err := s.events.PublishEnrichmentRequested(ctx, ev); err != nil {
			slog.Warn("publish enrichment request failed", "job_id", job.ID, "error", err)
		}
	}

	metrics.EnrichmentJobs.WithLabelValues(string(domain.JobPending)).Inc()
	return job, nil
}

// Get returns a job by id.
func (s *EnrichmentService) Get(ctx context.Context, id string) (*domain.EnrichmentJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListPending returns jobs still waiting for a result, including running
// jobs that have not been updated within the stale bound.
func (s *EnrichmentService) ListPending(ctx context.Context, limit int) ([]domain.EnrichmentJob, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.jobs.ListPending(ctx, time.Now().UTC().Add(-s.staleAfter), limit)
}

// Run resolves a job and stores the result. A job fails only when every
// resolver was unavailable; empty answers are a normal result.
func (s *EnrichmentService) Run(ctx context.Context, id string) (*domain.EnrichmentJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.MarkRunning(ctx, id); err != nil {
		return nil, fmt.Errorf("mark running: %w", err)
	}

	info := s.locations.Resolve(ctx, job.Point)
	if err := s.Complete(ctx, job, &info); err != nil {
		s.release(ctx, id, err)
		return nil, err
	}
	return s.jobs.GetByID(ctx, id)
}

// release moves a running job whose result could not be stored back to
// failed, so the sweep retries it.
func (s *EnrichmentService) release(ctx context.Context, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.MarkFailed(ctx, id, cause.Error()); err != nil {
		slog.Error("release enrichment job failed", "job_id", id, "cause", cause, "error", err)
	}
}

// Complete records the outcome of a resolved job and publishes it.
func (s *EnrichmentService) Complete(ctx context.Context, job *domain.EnrichmentJob, info *domain.LocationInfo) error {
	status, err := s.Record(ctx, job.ID, info)
	if err != nil {
		return err
	}
	s.Announce(ctx, job, status, info)
	return nil
}

// Record stores info on the job. The job fails only when every resolver
// was unavailable.
func (s *EnrichmentService) Record(ctx context.Context, jobID string, info *domain.LocationInfo) (domain.JobStatus, error) {
	status := domain.JobDone
	if AllUnavailable(info) {
		status = domain.JobFailed
		if err := s.jobs.MarkFailed(ctx, jobID, "all providers unavailable"); err != nil {
			return "", fmt.Errorf("mark failed: %w", err)
		}
	} else if err := s.jobs.SaveResult(ctx, jobID, info); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	metrics.EnrichmentJobs.WithLabelValues(string(status)).Inc()
	return status, nil
}

// Announce publishes the completion of a job. Publish failures are logged.
func (s *EnrichmentService) Announce(ctx context.Context, job *domain.EnrichmentJob, status domain.JobStatus, info *domain.LocationInfo) {
	if s.events == nil {
		return
	}
	ev := &domain.EnrichmentCompleted{
		JobID:     job.ID,
		CaptureID: job.CaptureID,
		Geohash:   geohash.EncodeWithPrecision(job.Point.Lat, job.Point.Lon, GeohashPrecision),
		Status:    status,
	}
	if status == domain.JobDone {
		ev.Info = info
	}
	if err := s.events.PublishEnrichmentCompleted(ctx, ev); err != nil {
		slog.Warn("publish enrichment completion failed", "job_id", job.ID, "error", err)
	}
}

// MarkRunning flags a job as in progress.
func (s *EnrichmentService) MarkRunning(ctx context.Context, id string) error {
	return s.jobs.MarkRunning(ctx, id)
}

// MarkFailed records reason on the job and makes it eligible for a rerun.
func (s *EnrichmentService) MarkFailed(ctx context.Context, id, reason string) error {
	if err := s.jobs.MarkFailed(ctx, id, reason); err != nil {
		return err
	}
	metrics.EnrichmentJobs.WithLabelValues(string(domain.JobFailed)).Inc()
	return nil
}

// HandleRequested runs the job named by a request event.
func (s *EnrichmentService) HandleRequested(ctx context.Context, ev *domain.EnrichmentRequested) error {
	_, err := s.Run(ctx, ev.JobID)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Warn("enrichment request for unknown job", "job_id", ev.JobID)
		return nil
	}
	return err
}

// Rerun starts a durable re-enrichment of an existing job.
func (s *EnrichmentService) Rerun(ctx context.Context, id string) (string, error) {
	if s.workflows == nil {
		return "", ErrWorkflowsDisabled
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status == domain.JobRunning && time.Since(job.UpdatedAt) < s.staleAfter {
		return "", ErrJobRunning
	}
	return s.workflows.StartReenrichment(ctx, id)
}

// RerunPending starts a re-enrichment for up to limit pending, failed or
// stale running jobs and returns how many were started.
func (s *EnrichmentService) RerunPending(ctx context.Context, limit int) (int, error) {
	jobs, err := s.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	started := 0
	for _, job := range jobs {
		if _, err := s.Rerun(ctx, job.ID); err != nil {
			if errors.Is(err, ErrWorkflowsDisabled) {
				return started, err
			}
			slog.Warn("start re-enrichment failed", "job_id", job.ID, "error", err)
			continue
		}
		started++
	}
	return started, nil
}

// Locations returns the resolver used for jobs.
func (s *EnrichmentService) Locations() *LocationService { return s.locations }

// AllUnavailable reports whether no resolver reached its provider.
func AllUnavailable(info *domain.LocationInfo) bool {
	o := info.Outcomes
	return o.Address.Status == domain.StatusUnavailable &&
		o.Highway.Status == domain.StatusUnavailable &&
		o.Landmarks.Status == domain.StatusUnavailable
}
