package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geofotos/internal/adapters/nats"
	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/bootstrap"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/config"
	"github.com/samirrijal/geofotos/internal/pkg/logging"
	"github.com/samirrijal/geofotos/internal/workflows"
)

// The re-enricher hosts the Temporal worker for EnrichmentWorkflow and
// periodically restarts pending or failed jobs through it.
func main() {
	cfg, err := config.Load("geofotos-reenricher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	shared := bootstrap.OpenSharedCache(cfg)
	if shared != nil {
		defer shared.Close()
	}
	locations := bootstrap.NewLocationService(cfg, bootstrap.NewProviders(cfg), bootstrap.NewGeoCache(cfg, shared))

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, completions will not be announced", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	enrichments := usecases.NewEnrichmentService(
		postgres.NewEnrichmentJobRepo(db),
		locations,
		events,
		workflows.NewStarter(c, cfg.Temporal.TaskQueue),
	)
	enrichments.SetStaleAfter(cfg.Temporal.StaleAfter)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.EnrichmentWorkflow)
	w.RegisterActivity(&workflows.EnrichmentActivities{Enrichments: enrichments})

	if cfg.Temporal.SweepInterval > 0 {
		go sweep(ctx, enrichments, cfg.Temporal.SweepInterval, cfg.Temporal.SweepLimit)
	}

	slog.Info("re-enrichment worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// sweep restarts up to limit pending or failed jobs every interval.
func sweep(ctx context.Context, enrichments *usecases.EnrichmentService, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started, err := enrichments.RerunPending(ctx, limit)
			if errors.Is(err, usecases.ErrWorkflowsDisabled) {
				return
			}
			if err != nil {
				slog.Error("pending sweep failed", "error", err)
				continue
			}
			if started > 0 {
				slog.Info("pending sweep restarted jobs", "count", started)
			}
		}
	}
}
