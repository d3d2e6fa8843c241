package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/adapters/valkey"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// DB, NATS and Cache are only used for readiness checks and may be nil.
type Dependencies struct {
	Locations     *usecases.LocationService
	Enrichments   *usecases.EnrichmentService
	HighwayPoints *usecases.HighwayPointService
	NATS          *nats.Conn
	DB            *postgres.DB
	Cache         *valkey.Cache
}
