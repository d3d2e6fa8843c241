package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

type locationFixture struct {
	geocoder *mockGeocoder
	highways *mockHighwayProvider
	svc      *usecases.LocationService
}

func newLocationFixture() *locationFixture {
	f := &locationFixture{
		geocoder: &mockGeocoder{
			reverseFn: func(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error) {
				return &domain.GeocodedPlace{Road: "Rodovia BR-101", City: "Palhoça", State: "SC"}, nil
			},
		},
		highways: &mockHighwayProvider{
			dataFn: func(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error) {
				return br101Data(), nil
			},
		},
	}
	f.svc = usecases.NewLocationService(
		usecases.NewAddressService(f.geocoder, nil),
		usecases.NewHighwayService(f.highways, nil, usecases.DefaultHighwayConfig()),
		usecases.NewLandmarkService(overpassFeatures(), nominatimSearch(), wikidataEntities(), nil, usecases.DefaultLandmarkConfig()),
	)
	return f
}

func TestLocationService_Resolve(t *testing.T) {
	f := newLocationFixture()

	info := f.svc.Resolve(context.Background(), equator(1100, 20))

	if info.Address == nil || info.Address.Formatted != "Rodovia BR-101, Palhoça/SC" {
		t.Errorf("address = %+v", info.Address)
	}
	if info.Highway == nil || info.Highway.Ref != "BR-101" {
		t.Fatalf("highway = %+v", info.Highway)
	}
	if info.Highway.Geometry != nil {
		t.Error("resolved info must not carry the polyline")
	}
	if len(info.Landmarks) == 0 {
		t.Error("expected landmarks")
	}
	if len(info.Geohash) != usecases.GeohashPrecision {
		t.Errorf("geohash %q has wrong length", info.Geohash)
	}
	if info.Outcomes.Address.Status != domain.StatusFound ||
		info.Outcomes.Highway.Status != domain.StatusFound ||
		info.Outcomes.Landmarks.Status != domain.StatusFound {
		t.Errorf("outcomes = %+v", info.Outcomes)
	}
	if info.ResolvedAt.IsZero() {
		t.Error("resolved_at not set")
	}
}

func TestLocationService_GracefulDegradation(t *testing.T) {
	f := newLocationFixture()
	f.highways.dataFn = func(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	info := f.svc.Resolve(context.Background(), equator(1100, 20))

	if info.Highway != nil {
		t.Errorf("highway = %+v, want none", info.Highway)
	}
	if info.Outcomes.Highway.Status != domain.StatusUnavailable {
		t.Errorf("highway outcome = %s, want unavailable", info.Outcomes.Highway.Status)
	}
	if !strings.Contains(info.Outcomes.Highway.Reason, "connection refused") {
		t.Errorf("reason = %q", info.Outcomes.Highway.Reason)
	}
	if info.Address == nil {
		t.Error("address must still resolve")
	}
	if len(info.Landmarks) == 0 {
		t.Error("landmarks must still resolve")
	}
}

func TestLocationService_ResolveAddressInfo(t *testing.T) {
	f := newLocationFixture()

	info := f.svc.ResolveAddressInfo(context.Background(), equator(1100, 20))

	if info.Address == nil || info.Highway == nil {
		t.Fatalf("expected address and highway, got %+v", info)
	}
	if len(info.Landmarks) != 0 {
		t.Error("address info must not look up landmarks")
	}
}
