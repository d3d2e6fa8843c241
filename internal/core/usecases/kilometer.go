package usecases

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
)

// HighwayConfig holds the highway-locator thresholds. Distances are meters.
type HighwayConfig struct {
	SearchRadius          float64 // max distance to a highway vertex
	WayRadius             float64 // geometry query radius
	MilestoneRadius       float64 // milestone query radius
	MilestoneLineDistance float64 // max milestone distance from the polyline
	PreferredMargin       float64 // preferred-prefix tie-break window
	PreferredPrefix       string
	NearestFallback       float64 // max direct distance for the nearest method
	DirectionSpread       float64 // min along-line spread to trust km direction
	ExactDistance         float64 // milestone this close counts as exact
}

// DefaultHighwayConfig returns the empirically chosen defaults.
func DefaultHighwayConfig() HighwayConfig {
	return HighwayConfig{
		SearchRadius:          200,
		WayRadius:             2000,
		MilestoneRadius:       5000,
		MilestoneLineDistance: 200,
		PreferredMargin:       50,
		PreferredPrefix:       "BR-",
		NearestFallback:       5000,
		DirectionSpread:       10,
		ExactDistance:         10,
	}
}

const maxMilestoneKm = 2000

var (
	leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	numericRef    = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// milestoneTags are checked in order; ref is handled separately because it
// often carries the highway code instead of the kilometer.
var milestoneTags = []string{"distance", "pk", "distance:ref", "addr:milestone"}

// ExtractMilestoneKm reads the kilometer value of a milestone node.
func ExtractMilestoneKm(tags map[string]string) (float64, bool) {
	for _, key := range milestoneTags {
		m := leadingNumber.FindString(tags[key])
		if m == "" {
			continue
		}
		km, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
		if err == nil && inKmRange(km) {
			return km, true
		}
	}

	ref := strings.TrimSpace(tags["ref"])
	if numericRef.MatchString(ref) {
		km, err := strconv.ParseFloat(ref, 64)
		if err == nil && inKmRange(km) {
			return km, true
		}
	}
	return 0, false
}

func inKmRange(km float64) bool {
	return km >= 0 && km < maxMilestoneKm
}

// MilestonesFromFeatures keeps the features that carry a usable km value.
func MilestonesFromFeatures(features []domain.MapFeature) []domain.Milestone {
	out := make([]domain.Milestone, 0, len(features))
	for _, f := range features {
		km, ok := ExtractMilestoneKm(f.Tags)
		if !ok {
			continue
		}
		out = append(out, domain.Milestone{Location: f.Location, Km: km})
	}
	return out
}

type projectedMilestone struct {
	km    float64
	along float64
}

// EstimateKm places p along line using the milestones that sit on it.
// It returns nil when no estimate is usable.
func EstimateKm(p domain.GeoPoint, line orb.LineString, milestones []domain.Milestone, cfg HighwayConfig) *domain.KmEstimate {
	user, ok := geospatial.ProjectPointOnPolyline(p.Point(), line)
	if !ok {
		return NearestMilestone(p, milestones, math.Inf(1), cfg.ExactDistance)
	}

	projected := make([]projectedMilestone, 0, len(milestones))
	for _, ms := range milestones {
		proj, ok := geospatial.ProjectPointOnPolyline(ms.Location.Point(), line)
		if !ok || proj.DistanceFromLine > cfg.MilestoneLineDistance {
			continue
		}
		projected = append(projected, projectedMilestone{km: ms.Km, along: proj.DistanceAlong})
	}
	sort.SliceStable(projected, func(i, j int) bool { return projected[i].along < projected[j].along })

	if len(projected) == 0 {
		return NearestMilestone(p, milestones, cfg.NearestFallback, cfg.ExactDistance)
	}

	var before, after *projectedMilestone
	for i := range projected {
		ms := &projected[i]
		if ms.along <= user.DistanceAlong {
			before = ms
		} else if after == nil {
			after = ms
		}
	}

	distance := math.Round(user.DistanceFromLine)

	if before != nil && after != nil {
		if span := after.along - before.along; span > 0 {
			fraction := (user.DistanceAlong - before.along) / span
			return &domain.KmEstimate{
				Km:        roundKm(before.km + fraction*(after.km-before.km)),
				Estimated: true,
				Method:    domain.KmInterpolation,
				Distance:  distance,
			}
		}
	}

	ref := before
	if ref == nil {
		ref = after
	}

	direction := 1.0
	if len(projected) >= 2 {
		first, last := projected[0], projected[len(projected)-1]
		if math.Abs(last.along-first.along) > cfg.DirectionSpread {
			if last.km-first.km > 0 {
				direction = 1
			} else {
				direction = -1
			}
		}
	}

	deltaKm := (user.DistanceAlong - ref.along) / 1000
	return &domain.KmEstimate{
		Km:        roundKm(math.Abs(ref.km + deltaKm*direction)),
		Estimated: true,
		Method:    domain.KmExtrapolation,
		Distance:  distance,
	}
}

// NearestMilestone picks the closest milestone by direct distance, up to
// maxDistance meters away.
func NearestMilestone(p domain.GeoPoint, milestones []domain.Milestone, maxDistance, exactDistance float64) *domain.KmEstimate {
	var (
		nearest *domain.Milestone
		best    = math.Inf(1)
	)
	for i := range milestones {
		d := geospatial.Distance(p.Point(), milestones[i].Location.Point())
		if d < best {
			best = d
			nearest = &milestones[i]
		}
	}
	if nearest == nil || best >= maxDistance {
		return nil
	}

	method := domain.KmNearest
	if best <= exactDistance {
		method = domain.KmExact
	}
	return &domain.KmEstimate{
		Km:        nearest.Km,
		Estimated: method != domain.KmExact,
		Method:    method,
		Distance:  math.Round(best),
	}
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
