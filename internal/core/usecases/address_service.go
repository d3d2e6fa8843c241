package usecases

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/ports"
	"github.com/samirrijal/geofotos/internal/pkg/geocache"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// AddressService reverse geocodes coordinates into readable addresses.
type AddressService struct {
	geocoder ports.ReverseGeocoder
	cache    *geocache.Cache
}

// NewAddressService creates a new AddressService.
func NewAddressService(geocoder ports.ReverseGeocoder, cache *geocache.Cache) *AddressService {
	return &AddressService{geocoder: geocoder, cache: cache}
}

// ReverseGeocode resolves the address at p. Only found addresses are cached.
func (s *AddressService) ReverseGeocode(ctx context.Context, p domain.GeoPoint) domain.Result[*domain.Address] {
	if cached, ok := geocache.Lookup[domain.Address](ctx, s.cache, geocache.Address, p.Lat, p.Lon); ok {
		return domain.Found(&cached)
	}

	place, err := s.geocoder.Reverse(ctx, p)
	if err != nil {
		slog.Warn("reverse geocoding failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		metrics.ResolverOutcomes.WithLabelValues("address", string(domain.StatusUnavailable)).Inc()
		return domain.Unavailable[*domain.Address](err)
	}
	if place == nil {
		metrics.ResolverOutcomes.WithLabelValues("address", string(domain.StatusEmpty)).Inc()
		return domain.Empty[*domain.Address]()
	}

	addr := NormalizeAddress(place)
	if addr.Formatted == "" {
		metrics.ResolverOutcomes.WithLabelValues("address", string(domain.StatusEmpty)).Inc()
		return domain.Empty[*domain.Address]()
	}

	geocache.Save(ctx, s.cache, geocache.Address, p.Lat, p.Lon, addr)
	metrics.ResolverOutcomes.WithLabelValues("address", string(domain.StatusFound)).Inc()
	return domain.Found(&addr)
}

// NormalizeAddress maps raw geocoder fields onto an Address and builds the
// short form "road, number, neighbourhood, postcode, city/state".
func NormalizeAddress(place *domain.GeocodedPlace) domain.Address {
	a := domain.Address{
		Road:          place.Road,
		HouseNumber:   place.HouseNumber,
		Neighbourhood: firstNonEmpty(place.Neighbourhood, place.Suburb),
		City:          firstNonEmpty(place.City, place.Town, place.Village),
		State:         place.State,
		Postcode:      place.Postcode,
		Hamlet:        place.Hamlet,
		County:        place.County,
		FullAddress:   place.DisplayName,
	}

	var parts []string
	if a.Road != "" {
		road := a.Road
		if a.HouseNumber != "" {
			road += ", " + a.HouseNumber
		}
		parts = append(parts, road)
	}
	if a.Neighbourhood != "" {
		parts = append(parts, a.Neighbourhood)
	}
	// Rural areas often have neither; hamlet and county are the best reference.
	if a.Neighbourhood == "" && a.Road == "" {
		if a.Hamlet != "" {
			parts = append(parts, a.Hamlet)
		}
		if a.County != "" {
			parts = append(parts, a.County)
		}
	}
	if a.Postcode != "" {
		parts = append(parts, a.Postcode)
	}
	switch {
	case a.City != "" && a.State != "":
		parts = append(parts, a.City+"/"+a.State)
	case a.City != "":
		parts = append(parts, a.City)
	case a.State != "":
		parts = append(parts, a.State)
	}

	a.Formatted = strings.Join(parts, ", ")
	if a.Formatted == "" {
		a.Formatted = place.DisplayName
	}
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
