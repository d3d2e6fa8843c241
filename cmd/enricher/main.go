package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/geofotos/internal/adapters/nats"
	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/bootstrap"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/config"
	"github.com/samirrijal/geofotos/internal/pkg/logging"
	"github.com/samirrijal/geofotos/internal/pkg/telemetry"
)

// The enricher consumes queued enrichment requests, resolves each capture
// and publishes the completion on its regional subject.
func main() {
	cfg, err := config.Load("geofotos-enricher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

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

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	enrichments := usecases.NewEnrichmentService(postgres.NewEnrichmentJobRepo(db), locations, pub, nil)
	if err := sub.SubscribeEnrichmentRequests(ctx, enrichments.HandleRequested); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("enricher started", "subject", natsadapter.SubjectRequest)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("enricher stopping", "signal", sig.String())
}
