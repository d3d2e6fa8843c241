package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/geocache"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		place domain.GeocodedPlace
		want  string
	}{
		{
			name: "urban",
			place: domain.GeocodedPlace{
				Road: "Rua Felipe Schmidt", HouseNumber: "515", Suburb: "Centro",
				Postcode: "88010-001", City: "Florianópolis", State: "Santa Catarina",
			},
			want: "Rua Felipe Schmidt, 515, Centro, 88010-001, Florianópolis/Santa Catarina",
		},
		{
			name:  "town without number",
			place: domain.GeocodedPlace{Road: "Avenida Brasil", Town: "Biguaçu", State: "SC"},
			want:  "Avenida Brasil, Biguaçu/SC",
		},
		{
			name:  "rural",
			place: domain.GeocodedPlace{Hamlet: "Linha Alta", County: "Chapecó", State: "Santa Catarina"},
			want:  "Linha Alta, Chapecó, Santa Catarina",
		},
		{
			name:  "hamlet ignored when road present",
			place: domain.GeocodedPlace{Road: "SC-401", Hamlet: "Vargem", Village: "Canasvieiras"},
			want:  "SC-401, Canasvieiras",
		},
		{
			name:  "display name fallback",
			place: domain.GeocodedPlace{DisplayName: "Oceano Atlântico"},
			want:  "Oceano Atlântico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.NormalizeAddress(&tt.place)
			if got.Formatted != tt.want {
				t.Errorf("formatted = %q, want %q", got.Formatted, tt.want)
			}
		})
	}
}

func TestAddressService_ReverseGeocode(t *testing.T) {
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error) {
			return &domain.GeocodedPlace{Road: "Rua Bocaiúva", City: "Florianópolis", DisplayName: "Rua Bocaiúva, Florianópolis"}, nil
		},
	}
	svc := usecases.NewAddressService(geocoder, geocache.New())

	res := svc.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: -27.5892, Lon: -48.5453})
	if !res.OK() {
		t.Fatalf("status = %s, want found", res.Status)
	}
	if res.Value.Formatted != "Rua Bocaiúva, Florianópolis" {
		t.Errorf("formatted = %q", res.Value.Formatted)
	}
	if res.Value.FullAddress != "Rua Bocaiúva, Florianópolis" {
		t.Errorf("full address = %q", res.Value.FullAddress)
	}

	again := svc.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: -27.58921, Lon: -48.54531})
	if !again.OK() || again.Value.Formatted != res.Value.Formatted {
		t.Errorf("cached result differs: %+v", again)
	}
	if n := geocoder.calls.Load(); n != 1 {
		t.Errorf("geocoder called %d times, want 1", n)
	}
}

func TestAddressService_FailureNotCached(t *testing.T) {
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := usecases.NewAddressService(geocoder, geocache.New())

	for i := 0; i < 2; i++ {
		res := svc.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1})
		if res.Status != domain.StatusUnavailable {
			t.Fatalf("status = %s, want unavailable", res.Status)
		}
		if res.Value != nil {
			t.Error("unavailable result must not carry an address")
		}
	}
	if n := geocoder.calls.Load(); n != 2 {
		t.Errorf("geocoder called %d times, want 2", n)
	}
}

func TestAddressService_NoMatchIsEmpty(t *testing.T) {
	svc := usecases.NewAddressService(&mockGeocoder{}, nil)

	res := svc.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: -30, Lon: -20})
	if res.Status != domain.StatusEmpty {
		t.Errorf("status = %s, want empty", res.Status)
	}
}
