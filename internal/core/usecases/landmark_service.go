package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sourcegraph/conc"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/pkg/geocache"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// LandmarkConfig holds the landmark search settings.
type LandmarkConfig struct {
	Radius      float64 // meters, feature and knowledge-graph search
	SearchDelta float64 // degrees, half side of the search viewbox
	MaxDistance float64 // meters, search hits further away are dropped
	Limit       int
}

// DefaultLandmarkConfig returns a ~100 m search keeping the top 3.
func DefaultLandmarkConfig() LandmarkConfig {
	return LandmarkConfig{
		Radius:      100,
		SearchDelta: 0.0009,
		MaxDistance: 100,
		Limit:       3,
	}
}

// LandmarkService merges named features from three independent sources.
type LandmarkService struct {
	features  ports.FeatureProvider
	search    ports.PlaceSearcher
	knowledge ports.KnowledgeGraph
	cache     *geocache.Cache
	cfg       LandmarkConfig
}

// NewLandmarkService creates a new LandmarkService. Nil sources are skipped.
func NewLandmarkService(
	features ports.FeatureProvider,
	search ports.PlaceSearcher,
	knowledge ports.KnowledgeGraph,
	cache *geocache.Cache,
	cfg LandmarkConfig,
) *LandmarkService {
	return &LandmarkService{
		features:  features,
		search:    search,
		knowledge: knowledge,
		cache:     cache,
		cfg:       cfg,
	}
}

type sourceResult struct {
	source    domain.LandmarkSource
	landmarks []domain.Landmark
	err       error
	skipped   bool
}

// FindNearbyLandmarks returns up to Limit landmarks around p. Sources fail
// independently; the result is unavailable only when every source failed.
func (s *LandmarkService) FindNearbyLandmarks(ctx context.Context, p domain.GeoPoint) domain.Result[[]domain.Landmark] {
	if cached, ok := geocache.Lookup[[]domain.Landmark](ctx, s.cache, geocache.POIs, p.Lat, p.Lon); ok {
		if len(cached) == 0 {
			return domain.Empty[[]domain.Landmark]()
		}
		return domain.Found(cached)
	}

	results := []sourceResult{
		{source: domain.SourceOverpass, skipped: s.features == nil},
		{source: domain.SourceNominatim, skipped: s.search == nil},
		{source: domain.SourceWikidata, skipped: s.knowledge == nil},
	}

	var wg conc.WaitGroup
	if s.features != nil {
		wg.Go(func() { results[0].landmarks, results[0].err = s.fromFeatures(ctx, p) })
	}
	if s.search != nil {
		wg.Go(func() { results[1].landmarks, results[1].err = s.fromSearch(ctx, p) })
	}
	if s.knowledge != nil {
		wg.Go(func() { results[2].landmarks, results[2].err = s.fromKnowledge(ctx, p) })
	}
	wg.Wait()

	var (
		all       []domain.Landmark
		errs      []error
		succeeded int
	)
	for _, r := range results {
		if r.skipped {
			continue
		}
		if r.err != nil {
			slog.Warn("landmark source failed", "source", r.source, "error", r.err)
			metrics.LandmarkSourceOutcomes.WithLabelValues(string(r.source), "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", r.source, r.err))
			continue
		}
		metrics.LandmarkSourceOutcomes.WithLabelValues(string(r.source), "ok").Inc()
		succeeded++
		all = append(all, r.landmarks...)
	}

	if succeeded == 0 {
		err := errors.Join(errs...)
		if err == nil {
			err = errors.New("no landmark sources configured")
		}
		metrics.ResolverOutcomes.WithLabelValues("landmarks", string(domain.StatusUnavailable)).Inc()
		return domain.Unavailable[[]domain.Landmark](err)
	}

	top := RankLandmarks(DedupeLandmarks(all), s.cfg.Limit)
	if top == nil {
		top = []domain.Landmark{}
	}
	geocache.Save(ctx, s.cache, geocache.POIs, p.Lat, p.Lon, top)

	if len(top) == 0 {
		metrics.ResolverOutcomes.WithLabelValues("landmarks", string(domain.StatusEmpty)).Inc()
		return domain.Empty[[]domain.Landmark]()
	}
	metrics.ResolverOutcomes.WithLabelValues("landmarks", string(domain.StatusFound)).Inc()
	return domain.Found(top)
}

func (s *LandmarkService) fromFeatures(ctx context.Context, p domain.GeoPoint) ([]domain.Landmark, error) {
	features, err := s.features.NearbyFeatures(ctx, p, s.cfg.Radius)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Landmark, 0, len(features))
	for _, f := range features {
		name := f.Tag("name")
		if name == "" {
			continue
		}
		typ, cat := ExtractPOIType(f.Tags)
		dist := geospatial.Distance(p.Point(), f.Location.Point())
		out = append(out, newLandmark(name, typ, cat, dist, domain.SourceOverpass, f.Location))
	}
	return out, nil
}

func (s *LandmarkService) fromSearch(ctx context.Context, p domain.GeoPoint) ([]domain.Landmark, error) {
	hits, err := s.search.SearchNearby(ctx, p, s.cfg.SearchDelta)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Landmark, 0, len(hits))
	for _, h := range hits {
		if h.Name == "" {
			continue
		}
		dist := geospatial.Distance(p.Point(), h.Location.Point())
		if math.Round(dist) > s.cfg.MaxDistance {
			continue
		}
		cat := MapNominatimClass(h.Class)
		out = append(out, newLandmark(h.Name, h.Type, cat, dist, domain.SourceNominatim, h.Location))
	}
	return out, nil
}

func (s *LandmarkService) fromKnowledge(ctx context.Context, p domain.GeoPoint) ([]domain.Landmark, error) {
	hits, err := s.knowledge.NearbyEntities(ctx, p, s.cfg.Radius/1000)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Landmark, 0, len(hits))
	for _, h := range hits {
		if !labeled(h.Name) {
			continue
		}
		var instance string
		if len(h.Instances) > 0 {
			instance = h.Instances[0]
		}
		dist := geospatial.Distance(p.Point(), h.Location.Point())
		out = append(out, newLandmark(h.Name, instance, MapWikidataInstance(instance), dist, domain.SourceWikidata, h.Location))
	}
	return out, nil
}

func newLandmark(name, typ string, cat domain.Category, dist float64, src domain.LandmarkSource, loc domain.GeoPoint) domain.Landmark {
	return domain.Landmark{
		Name:      name,
		Type:      typ,
		Category:  cat,
		Icon:      LandmarkIcon(typ, cat),
		Distance:  math.Round(dist),
		Source:    src,
		Relevance: Relevance(cat, dist, src == domain.SourceWikidata),
		Location:  loc,
	}
}
