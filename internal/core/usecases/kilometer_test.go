package usecases_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

func TestExtractMilestoneKm(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want float64
		ok   bool
	}{
		{"distance", map[string]string{"distance": "12.5"}, 12.5, true},
		{"pk", map[string]string{"pk": "34"}, 34, true},
		{"leading number", map[string]string{"distance": "12 km"}, 12, true},
		{"precedence", map[string]string{"distance": "7", "pk": "9"}, 7, true},
		{"skip invalid candidate", map[string]string{"distance": "abc", "pk": "8"}, 8, true},
		{"addr milestone", map[string]string{"addr:milestone": "101"}, 101, true},
		{"numeric ref", map[string]string{"ref": " 120 "}, 120, true},
		{"zero", map[string]string{"distance": "0"}, 0, true},
		{"not numeric", map[string]string{"distance": "abc"}, 0, false},
		{"negative", map[string]string{"distance": "-5"}, 0, false},
		{"too large", map[string]string{"distance": "2500"}, 0, false},
		{"exponent", map[string]string{"distance": "1e3"}, 1000, true},
		{"fractional exponent", map[string]string{"distance": "1.5e1"}, 15, true},
		{"exponent out of range", map[string]string{"distance": "3e3", "pk": "4"}, 4, true},
		{"dangling exponent", map[string]string{"distance": "12e"}, 12, true},
		{"highway code ref", map[string]string{"ref": "BR-101"}, 0, false},
		{"ref out of range", map[string]string{"ref": "2500"}, 0, false},
		{"no tags", map[string]string{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := usecases.ExtractMilestoneKm(tt.tags)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("km = %v, want %v", got, tt.want)
			}
		})
	}
}

// equator returns a point on the equator metres east of (0, 0), offset
// metres north.
func equator(east, north float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: deg(north), Lon: deg(east)}
}

func straightLine() orb.LineString {
	return orb.LineString{equator(0, 0).Point(), equator(5000, 0).Point()}
}

func TestEstimateKm_Interpolation(t *testing.T) {
	milestones := []domain.Milestone{
		{Location: equator(0, 0), Km: 10},
		{Location: equator(1000, 0), Km: 20},
	}

	est := usecases.EstimateKm(equator(500, 10), straightLine(), milestones, usecases.DefaultHighwayConfig())
	if est == nil {
		t.Fatal("expected an estimate")
	}
	if est.Km != 15.0 {
		t.Errorf("km = %v, want 15.0", est.Km)
	}
	if est.Method != domain.KmInterpolation {
		t.Errorf("method = %s, want interpolation", est.Method)
	}
	if !est.Estimated {
		t.Error("interpolated estimate must be flagged as estimated")
	}
	if est.Distance != 10 {
		t.Errorf("distance from line = %v, want 10", est.Distance)
	}
}

func TestEstimateKm_ExtrapolationIncreasing(t *testing.T) {
	milestones := []domain.Milestone{{Location: equator(0, 0), Km: 10}}

	est := usecases.EstimateKm(equator(2000, 0), straightLine(), milestones, usecases.DefaultHighwayConfig())
	if est == nil {
		t.Fatal("expected an estimate")
	}
	if math.Abs(est.Km-12.0) > 0.05 {
		t.Errorf("km = %v, want ~12.0", est.Km)
	}
	if est.Method != domain.KmExtrapolation {
		t.Errorf("method = %s, want extrapolation", est.Method)
	}
}

func TestEstimateKm_ExtrapolationDecreasing(t *testing.T) {
	milestones := []domain.Milestone{
		{Location: equator(0, 0), Km: 20},
		{Location: equator(1000, 0), Km: 19},
	}

	est := usecases.EstimateKm(equator(2000, 0), straightLine(), milestones, usecases.DefaultHighwayConfig())
	if est == nil {
		t.Fatal("expected an estimate")
	}
	if est.Km != 18.0 {
		t.Errorf("km = %v, want 18.0", est.Km)
	}
	if est.Method != domain.KmExtrapolation {
		t.Errorf("method = %s, want extrapolation", est.Method)
	}
}

func TestEstimateKm_IgnoresMilestonesOffTheLine(t *testing.T) {
	milestones := []domain.Milestone{
		{Location: equator(0, 0), Km: 10},
		{Location: equator(1000, 0), Km: 20},
		// belongs to another road
		{Location: equator(600, 300), Km: 300},
	}

	est := usecases.EstimateKm(equator(500, 0), straightLine(), milestones, usecases.DefaultHighwayConfig())
	if est == nil || est.Km != 15.0 {
		t.Fatalf("estimate = %+v, want km 15.0", est)
	}
}

func TestEstimateKm_NearestFallback(t *testing.T) {
	milestones := []domain.Milestone{{Location: equator(0, 500), Km: 42}}

	est := usecases.EstimateKm(equator(0, 0), straightLine(), milestones, usecases.DefaultHighwayConfig())
	if est == nil {
		t.Fatal("expected an estimate")
	}
	if est.Method != domain.KmNearest || est.Km != 42 || !est.Estimated {
		t.Errorf("estimate = %+v, want nearest km 42 estimated", est)
	}
	if est.Distance != 500 {
		t.Errorf("distance = %v, want 500", est.Distance)
	}
}

func TestEstimateKm_NothingWithinFallbackRadius(t *testing.T) {
	milestones := []domain.Milestone{{Location: equator(0, 6000), Km: 42}}

	if est := usecases.EstimateKm(equator(0, 0), straightLine(), milestones, usecases.DefaultHighwayConfig()); est != nil {
		t.Errorf("expected no estimate, got %+v", est)
	}
}

func TestNearestMilestone_Exact(t *testing.T) {
	milestones := []domain.Milestone{
		{Location: equator(5, 0), Km: 7},
		{Location: equator(900, 0), Km: 8},
	}

	est := usecases.NearestMilestone(equator(0, 0), milestones, 5000, 10)
	if est == nil {
		t.Fatal("expected an estimate")
	}
	if est.Method != domain.KmExact || est.Estimated {
		t.Errorf("estimate = %+v, want exact and not estimated", est)
	}
}
