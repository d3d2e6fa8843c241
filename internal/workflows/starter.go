package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

// Starter implements ports.WorkflowStarter with a Temporal client.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter submitting to taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartReenrichment starts EnrichmentWorkflow for a job. One run per job
// may be open at a time; a second start while it runs is rejected.
func (s *Starter) StartReenrichment(ctx context.Context, jobID string) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    "enrich-" + jobID,
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, EnrichmentWorkflow, EnrichmentInput{JobID: jobID})
	if err != nil {
		return "", fmt.Errorf("start enrichment workflow: %w", err)
	}
	return run.GetRunID(), nil
}
