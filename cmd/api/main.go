package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/geofotos/internal/adapters/http"
	natsadapter "github.com/samirrijal/geofotos/internal/adapters/nats"
	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/bootstrap"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/config"
	"github.com/samirrijal/geofotos/internal/pkg/logging"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
	"github.com/samirrijal/geofotos/internal/pkg/telemetry"
	"github.com/samirrijal/geofotos/internal/workflows"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("geofotos-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)
	http.Version = version

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	shared := bootstrap.OpenSharedCache(cfg)
	if shared != nil {
		defer shared.Close()
	}
	geoCache := bootstrap.NewGeoCache(cfg, shared)

	// Resolvers
	locations := bootstrap.NewLocationService(cfg, bootstrap.NewProviders(cfg), geoCache)

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, enrichment jobs wait for the sweep", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Temporal
	var starter ports.WorkflowStarter
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, re-enrichment disabled", "error", err)
		} else {
			defer tc.Close()
			starter = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
		}
	}

	enrichments := usecases.NewEnrichmentService(postgres.NewEnrichmentJobRepo(db), locations, events, starter)
	enrichments.SetStaleAfter(cfg.Temporal.StaleAfter)

	deps := &http.Dependencies{
		Locations:     locations,
		Enrichments:   enrichments,
		HighwayPoints: usecases.NewHighwayPointService(postgres.NewHighwayPointRepo(db)),
		NATS:          natsConn,
		DB:            db,
		Cache:         shared,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "GeoFotos API",
	})

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// In-flight resolutions may be queued behind the Nominatim limiter.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats exports database pool gauges until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
