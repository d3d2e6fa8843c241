package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// Per-request timeouts. Resolution fans out to three providers, one of
// which is rate limited to a request per second, so it gets a longer
// budget than plain reads.
const (
	readTimeout    = 15 * time.Second
	resolveTimeout = 60 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(SecurityHeadersMiddleware(APIVersion))
	app.Use(etag.New(etag.Config{Weak: true}))
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Resolution
	v1.Get("/address", timeout.NewWithContext(AddressHandler(deps), resolveTimeout))
	v1.Get("/highway", timeout.NewWithContext(HighwayHandler(deps), resolveTimeout))
	v1.Get("/landmarks", timeout.NewWithContext(LandmarksHandler(deps), resolveTimeout))
	v1.Get("/location-info", timeout.NewWithContext(LocationInfoHandler(deps), resolveTimeout))
	v1.Get("/location-info/export", timeout.NewWithContext(ExportLocationHandler(deps), resolveTimeout))
	v1.Get("/address-info", timeout.NewWithContext(AddressInfoHandler(deps), resolveTimeout))

	// Deferred enrichment
	v1.Post("/enrichments", timeout.NewWithContext(CreateEnrichmentHandler(deps), readTimeout))
	v1.Get("/enrichments", timeout.NewWithContext(ListPendingEnrichmentsHandler(deps), readTimeout))
	v1.Get("/enrichments/:id", timeout.NewWithContext(GetEnrichmentHandler(deps), readTimeout))
	v1.Post("/enrichments/:id/rerun", timeout.NewWithContext(RerunEnrichmentHandler(deps), readTimeout))

	// Notable highway points
	v1.Get("/highway-points/nearest", timeout.NewWithContext(NearestHighwayPointHandler(deps), readTimeout))
	v1.Get("/highway-points/estimate", timeout.NewWithContext(EstimateHighwayKmHandler(deps), readTimeout))
	v1.Get("/highway-points/stats", timeout.NewWithContext(HighwayPointStatsHandler(deps), readTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), resolveTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
