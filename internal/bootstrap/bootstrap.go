// Package bootstrap builds the location resolvers from configuration. The
// API, the enricher and the re-enrichment worker all resolve points, and
// must share the same provider limits and cache settings.
package bootstrap

import (
	"log/slog"

	"github.com/samirrijal/geofotos/internal/adapters/nominatim"
	"github.com/samirrijal/geofotos/internal/adapters/overpass"
	"github.com/samirrijal/geofotos/internal/adapters/valkey"
	"github.com/samirrijal/geofotos/internal/adapters/wikidata"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/config"
	"github.com/samirrijal/geofotos/internal/pkg/fetch"
	"github.com/samirrijal/geofotos/internal/pkg/geocache"
)

// Providers groups the outbound geodata clients.
type Providers struct {
	Nominatim *nominatim.Client
	Overpass  *overpass.Client
	Wikidata  *wikidata.Client
}

// NewProviders creates the provider clients. Both Nominatim roles share one
// limiter so reverse geocoding and place search together stay under the
// service's request rate.
func NewProviders(cfg *config.Config) *Providers {
	fc := fetch.NewClient(cfg.Providers.UserAgent)
	limiter := fetch.NewLimiter("nominatim", max(cfg.Providers.Nominatim.RateInterval, config.MinNominatimInterval))

	nomCfg := nominatim.DefaultConfig()
	nomCfg.BaseURL = cfg.Providers.Nominatim.URL
	nomCfg.Language = cfg.Providers.Nominatim.Language
	nomCfg.ReverseTimeout = cfg.Providers.Nominatim.ReverseTimeout
	nomCfg.ReverseRetries = cfg.Providers.Nominatim.ReverseRetries
	nomCfg.SearchTimeout = cfg.Providers.Nominatim.SearchTimeout
	nomCfg.SearchRetries = cfg.Providers.Nominatim.SearchRetries

	opCfg := overpass.DefaultConfig()
	opCfg.URL = cfg.Providers.Overpass.URL
	if cfg.Highway.RefPattern != "" {
		opCfg.RefPattern = cfg.Highway.RefPattern
	}
	opCfg.HighwayTimeout = cfg.Providers.Overpass.HighwayTimeout
	opCfg.HighwayRetries = cfg.Providers.Overpass.HighwayRetries
	opCfg.POITimeout = cfg.Providers.Overpass.POITimeout
	opCfg.POIRetries = cfg.Providers.Overpass.POIRetries

	wdCfg := wikidata.DefaultConfig()
	wdCfg.URL = cfg.Providers.Wikidata.URL
	wdCfg.Languages = cfg.Providers.Wikidata.Languages
	wdCfg.Timeout = cfg.Providers.Wikidata.Timeout
	wdCfg.Retries = cfg.Providers.Wikidata.Retries

	return &Providers{
		Nominatim: nominatim.New(nomCfg, fc, limiter),
		Overpass:  overpass.New(opCfg, fc),
		Wikidata:  wikidata.New(wdCfg, fc),
	}
}

// HighwayConfig maps the configured thresholds onto the locator defaults.
func HighwayConfig(cfg *config.Config) usecases.HighwayConfig {
	hc := usecases.DefaultHighwayConfig()
	hc.PreferredPrefix = cfg.Highway.PreferredPrefix
	hc.SearchRadius = cfg.Highway.SearchRadius
	hc.WayRadius = cfg.Highway.WayRadius
	hc.MilestoneRadius = cfg.Highway.MilestoneRadius
	hc.MilestoneLineDistance = cfg.Highway.MilestoneLineDistance
	hc.PreferredMargin = cfg.Highway.PreferredMargin
	hc.NearestFallback = cfg.Highway.NearestFallback
	hc.DirectionSpread = cfg.Highway.DirectionSpread
	hc.ExactDistance = cfg.Highway.ExactDistance
	return hc
}

// LandmarkConfig maps the configured search settings.
func LandmarkConfig(cfg *config.Config) usecases.LandmarkConfig {
	return usecases.LandmarkConfig{
		Radius:      cfg.Landmarks.Radius,
		SearchDelta: cfg.Landmarks.SearchDelta,
		MaxDistance: cfg.Landmarks.MaxDistance,
		Limit:       cfg.Landmarks.Limit,
	}
}

// NewGeoCache creates the in-process grid cache. A non-nil shared cache is
// used as a second level when cache.shared is set.
func NewGeoCache(cfg *config.Config, shared *valkey.Cache) *geocache.Cache {
	opts := []geocache.Option{
		geocache.WithMaxAge(cfg.Cache.MaxAge),
		geocache.WithMaxEntries(cfg.Cache.MaxEntries),
	}
	if cfg.Cache.Shared && shared != nil {
		opts = append(opts, geocache.WithBackend(shared))
	}
	return geocache.New(opts...)
}

// NewLocationService wires the three resolvers to the providers and cache.
func NewLocationService(cfg *config.Config, p *Providers, cache *geocache.Cache) *usecases.LocationService {
	return usecases.NewLocationService(
		usecases.NewAddressService(p.Nominatim, cache),
		usecases.NewHighwayService(p.Overpass, cache, HighwayConfig(cfg)),
		usecases.NewLandmarkService(p.Overpass, p.Nominatim, p.Wikidata, cache, LandmarkConfig(cfg)),
	)
}

// OpenSharedCache connects to Valkey. A failure is logged and yields nil:
// resolution then runs on the in-process cache alone.
func OpenSharedCache(cfg *config.Config) *valkey.Cache {
	if !cfg.Cache.Shared {
		return nil
	}
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, using in-process cache only", "error", err)
		return nil
	}
	return cache
}
