package usecases

import (
	"context"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/sourcegraph/conc"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// GeohashPrecision is the geohash length stored on a LocationInfo (~150 m).
const GeohashPrecision = 7

// LocationService resolves address, highway and landmarks for a point.
type LocationService struct {
	addresses *AddressService
	highways  *HighwayService
	landmarks *LandmarkService
	now       func() time.Time
}

// NewLocationService creates a new LocationService.
func NewLocationService(addresses *AddressService, highways *HighwayService, landmarks *LandmarkService) *LocationService {
	return &LocationService{
		addresses: addresses,
		highways:  highways,
		landmarks: landmarks,
		now:       time.Now,
	}
}

// Addresses returns the address resolver.
func (s *LocationService) Addresses() *AddressService { return s.addresses }

// Highways returns the highway resolver.
func (s *LocationService) Highways() *HighwayService { return s.highways }

// Landmarks returns the landmark aggregator.
func (s *LocationService) Landmarks() *LandmarkService { return s.landmarks }

// Resolve runs the three resolvers concurrently and records each outcome.
// A failing resolver never fails the whole.
func (s *LocationService) Resolve(ctx context.Context, p domain.GeoPoint) domain.LocationInfo {
	var (
		addr      domain.Result[*domain.Address]
		highway   domain.Result[domain.HighwayInfo]
		landmarks domain.Result[[]domain.Landmark]
		wg        conc.WaitGroup
	)
	wg.Go(func() { addr = s.addresses.ReverseGeocode(ctx, p) })
	wg.Go(func() { highway = s.highways.FindHighwayInfo(ctx, p) })
	wg.Go(func() { landmarks = s.landmarks.FindNearbyLandmarks(ctx, p) })
	wg.Wait()

	info := s.base(p, addr, highway)
	info.Landmarks = landmarks.Value
	if info.Landmarks == nil {
		info.Landmarks = []domain.Landmark{}
	}
	info.Outcomes.Landmarks = domain.OutcomeOf(landmarks)
	return info
}

// ResolveAddressInfo resolves only the address and the highway.
func (s *LocationService) ResolveAddressInfo(ctx context.Context, p domain.GeoPoint) domain.LocationInfo {
	var (
		addr    domain.Result[*domain.Address]
		highway domain.Result[domain.HighwayInfo]
		wg      conc.WaitGroup
	)
	wg.Go(func() { addr = s.addresses.ReverseGeocode(ctx, p) })
	wg.Go(func() { highway = s.highways.FindHighwayInfo(ctx, p) })
	wg.Wait()

	info := s.base(p, addr, highway)
	info.Outcomes.Landmarks = domain.Outcome{Status: domain.StatusEmpty}
	return info
}

func (s *LocationService) base(p domain.GeoPoint, addr domain.Result[*domain.Address], highway domain.Result[domain.HighwayInfo]) domain.LocationInfo {
	info := domain.LocationInfo{
		Point:      p,
		Geohash:    geohash.EncodeWithPrecision(p.Lat, p.Lon, GeohashPrecision),
		Address:    addr.Value,
		ResolvedAt: s.now().UTC(),
		Outcomes: domain.Outcomes{
			Address: domain.OutcomeOf(addr),
			Highway: domain.OutcomeOf(highway),
		},
	}
	if highway.OK() {
		h := highway.Value.WithoutGeometry()
		info.Highway = &h
	}
	return info
}
