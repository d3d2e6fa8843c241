package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("geofotos-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.Nominatim.RateInterval != 1100*time.Millisecond {
		t.Errorf("rate interval = %s", cfg.Providers.Nominatim.RateInterval)
	}
	if cfg.Cache.MaxAge != 10*time.Minute || cfg.Cache.MaxEntries != 100 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Highway.SearchRadius != 200 || cfg.Highway.PreferredPrefix != "BR-" {
		t.Errorf("highway = %+v", cfg.Highway)
	}
	if cfg.Highway.DirectionSpread != 10 || cfg.Highway.ExactDistance != 10 {
		t.Errorf("highway thresholds = %+v", cfg.Highway)
	}
	if cfg.Providers.UserAgent != "GeoFotos-App/1.0" {
		t.Errorf("user agent = %q", cfg.Providers.UserAgent)
	}
	if cfg.Temporal.StaleAfter != 30*time.Minute {
		t.Errorf("stale after = %s", cfg.Temporal.StaleAfter)
	}
	if cfg.Telemetry.ServiceName != "geofotos-test" {
		t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GEOFOTOS_SERVER_PORT", "9090")
	t.Setenv("GEOFOTOS_PROVIDERS_NOMINATIM_LANGUAGE", "en")

	cfg, err := Load("geofotos-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Providers.Nominatim.Language != "en" {
		t.Errorf("language = %q, want en", cfg.Providers.Nominatim.Language)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	t.Setenv("GEOFOTOS_PROVIDERS_NOMINATIM_RATE_INTERVAL", "1s")
	t.Setenv("GEOFOTOS_SERVER_PORT", "0")
	t.Setenv("GEOFOTOS_HIGHWAY_EXACT_DISTANCE", "-1")

	_, err := Load("geofotos-test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "rate_interval", "highway.exact_distance"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_NominatimSpacingFloor(t *testing.T) {
	tests := []struct {
		interval string
		wantErr  bool
	}{
		{"1s", true},
		{"1099ms", true},
		{"1100ms", false},
		{"2s", false},
	}
	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			t.Setenv("GEOFOTOS_PROVIDERS_NOMINATIM_RATE_INTERVAL", tt.interval)

			_, err := Load("geofotos-test")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "rate_interval") {
					t.Errorf("interval %s: err = %v, want rate_interval error", tt.interval, err)
				}
				return
			}
			if err != nil {
				t.Errorf("interval %s: unexpected error: %v", tt.interval, err)
			}
		})
	}
}
