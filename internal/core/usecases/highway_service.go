package usecases

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/pkg/geocache"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// HighwayService identifies the numbered highway at a point and estimates
// the kilometer marker along it.
type HighwayService struct {
	provider ports.HighwayDataProvider
	cache    *geocache.Cache
	cfg      HighwayConfig
}

// NewHighwayService creates a new HighwayService.
func NewHighwayService(provider ports.HighwayDataProvider, cache *geocache.Cache, cfg HighwayConfig) *HighwayService {
	return &HighwayService{provider: provider, cache: cache, cfg: cfg}
}

// FindHighwayInfo resolves the highway at p. Points away from any highway
// give an empty result, which is cached; provider failures are not.
func (s *HighwayService) FindHighwayInfo(ctx context.Context, p domain.GeoPoint) domain.Result[domain.HighwayInfo] {
	if cached, ok := geocache.Lookup[domain.Result[domain.HighwayInfo]](ctx, s.cache, geocache.Highway, p.Lat, p.Lon); ok {
		return cached
	}

	data, err := s.provider.HighwayData(ctx, p, s.cfg.WayRadius, s.cfg.MilestoneRadius)
	if err != nil {
		slog.Warn("highway lookup failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		metrics.ResolverOutcomes.WithLabelValues("highway", string(domain.StatusUnavailable)).Inc()
		return domain.Unavailable[domain.HighwayInfo](err)
	}

	res := s.locate(p, data)
	metrics.ResolverOutcomes.WithLabelValues("highway", string(res.Status)).Inc()
	geocache.Save(ctx, s.cache, geocache.Highway, p.Lat, p.Lon, res)
	return res
}

func (s *HighwayService) locate(p domain.GeoPoint, data *domain.HighwayData) domain.Result[domain.HighwayInfo] {
	if data == nil || len(data.Segments) == 0 {
		return domain.Empty[domain.HighwayInfo]()
	}

	closest, dist := s.closestSegment(p, data.Segments)
	if closest == nil || dist > s.cfg.SearchRadius {
		return domain.Empty[domain.HighwayInfo]()
	}

	var parts []orb.LineString
	for _, seg := range data.Segments {
		if seg.Ref != closest.Ref {
			continue
		}
		parts = append(parts, segmentLine(seg))
	}
	line := geospatial.ChainSegments(parts)
	milestones := MilestonesFromFeatures(data.Milestones)

	info := domain.HighwayInfo{
		Ref:      closest.Ref,
		Name:     closest.Name,
		Geometry: lineToPoints(line),
	}

	switch {
	case len(milestones) == 0:
	case len(line) >= 2:
		info.Estimate = EstimateKm(p, line, milestones, s.cfg)
	default:
		info.Estimate = NearestMilestone(p, milestones, math.Inf(1), s.cfg.ExactDistance)
	}

	return domain.Found(info)
}

// closestSegment scans every vertex. A preferred-class highway (federal
// routes) displaces a closer non-preferred one within PreferredMargin.
func (s *HighwayService) closestSegment(p domain.GeoPoint, segments []domain.HighwaySegment) (*domain.HighwaySegment, float64) {
	var (
		best          *domain.HighwaySegment
		bestDist      = math.Inf(1)
		bestPreferred bool
	)
	for i := range segments {
		seg := &segments[i]
		preferred := s.cfg.PreferredPrefix != "" && strings.HasPrefix(seg.Ref, s.cfg.PreferredPrefix)
		for _, v := range seg.Geometry {
			d := geospatial.Haversine(p.Lat, p.Lon, v.Lat, v.Lon)
			if d < bestDist || (d < bestDist+s.cfg.PreferredMargin && preferred && !bestPreferred) {
				best = seg
				bestDist = d
				bestPreferred = preferred
			}
		}
	}
	return best, bestDist
}

func segmentLine(seg domain.HighwaySegment) orb.LineString {
	ls := make(orb.LineString, len(seg.Geometry))
	for i, g := range seg.Geometry {
		ls[i] = g.Point()
	}
	return ls
}

func lineToPoints(line orb.LineString) []domain.GeoPoint {
	if len(line) == 0 {
		return nil
	}
	pts := make([]domain.GeoPoint, len(line))
	for i, pt := range line {
		pts[i] = domain.PointFromOrb(pt)
	}
	return pts
}
