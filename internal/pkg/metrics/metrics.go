package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geofotos",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geofotos",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Provider metrics
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Total outbound provider attempts by outcome",
	}, []string{"provider", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geofotos",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound provider attempts",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
	}, []string{"provider"})

	RateLimitWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geofotos",
		Subsystem: "provider",
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting for a provider rate-limit slot",
		Buckets:   []float64{0, 0.1, 0.5, 1, 1.1, 2.5, 5, 10},
	}, []string{"provider"})

	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "resolver",
		Name:      "outcomes_total",
		Help:      "Resolver results by resolver and status (found, empty, unavailable)",
	}, []string{"resolver", "status"})

	LandmarkSourceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "landmarks",
		Name:      "source_outcomes_total",
		Help:      "Landmark fan-out results per source",
	}, []string{"source", "outcome"})

	EnrichmentJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "enrichment",
		Name:      "jobs_total",
		Help:      "Deferred enrichment jobs by final status",
	}, []string{"status"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geofotos",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"category"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"category"})

	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofotos",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries removed for expiry or capacity",
	}, []string{"category", "reason"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geofotos",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geofotos",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geofotos",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies pool gauges from a pgxpool.Stat. It takes an
// interface so this package does not depend on pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
