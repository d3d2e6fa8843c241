package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// EnrichmentInput is the input for the re-enrichment workflow.
type EnrichmentInput struct {
	JobID string
}

// EnrichmentWorkflow re-resolves a stored job. A resolution that reaches no
// provider is retried; once retries are exhausted the job is recorded as
// failed so the periodic sweep can pick it up again later.
func EnrichmentWorkflow(ctx workflow.Context, input EnrichmentInput) (domain.JobStatus, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting enrichment workflow", "jobID", input.JobID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Resolution fans out to three providers with their own timeouts and
	// retries, so it gets a longer budget and a slower retry.
	resolveCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})

	// Step 1: Load the job
	var job domain.EnrichmentJob
	if err := workflow.ExecuteActivity(ctx, "LoadJob", input.JobID).Get(ctx, &job); err != nil {
		return "", err
	}
	if err := workflow.ExecuteActivity(ctx, "MarkRunning", input.JobID).Get(ctx, nil); err != nil {
		return "", err
	}

	// Step 2: Resolve
	var info domain.LocationInfo
	if err := workflow.ExecuteActivity(resolveCtx, "ResolveLocation", job.Point).Get(ctx, &info); err != nil {
		logger.Warn("resolution failed, recording job as failed", "error", err)
		reason := domain.Outcome{Status: domain.StatusUnavailable, Reason: err.Error()}
		info = domain.LocationInfo{
			Point:    job.Point,
			Outcomes: domain.Outcomes{Address: reason, Highway: reason, Landmarks: reason},
		}
	}

	// Step 3: Save. A job that cannot be saved must not stay running.
	var status domain.JobStatus
	if err := workflow.ExecuteActivity(ctx, "SaveResult", input.JobID, &info).Get(ctx, &status); err != nil {
		logger.Error("save failed, releasing job", "jobID", input.JobID, "error", err)
		if relErr := workflow.ExecuteActivity(ctx, "MarkFailed", input.JobID, err.Error()).Get(ctx, nil); relErr != nil {
			logger.Error("release failed", "jobID", input.JobID, "error", relErr)
		}
		return "", err
	}

	// Step 4: Publish
	if err := workflow.ExecuteActivity(ctx, "PublishCompleted", &job, status, &info).Get(ctx, nil); err != nil {
		logger.Warn("publish failed", "error", err)
	}

	logger.Info("Enrichment workflow finished", "jobID", input.JobID, "status", status)
	return status, nil
}
