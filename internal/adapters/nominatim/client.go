// Package nominatim talks to the OpenStreetMap Nominatim service.
//
// Nominatim's usage policy allows at most one request per second from an
// identified client, so every call goes through a shared fetch.Limiter.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/fetch"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
)

const providerName = "nominatim"

// Config holds endpoint and retry settings.
type Config struct {
	BaseURL        string
	Language       string
	Zoom           int
	SearchLimit    int
	ReverseTimeout time.Duration
	ReverseRetries int
	SearchTimeout  time.Duration
	SearchRetries  int
}

// DefaultConfig returns the public Nominatim settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://nominatim.openstreetmap.org",
		Language:       "pt-BR",
		Zoom:           18,
		SearchLimit:    20,
		ReverseTimeout: 10 * time.Second,
		ReverseRetries: 2,
		SearchTimeout:  10 * time.Second,
		SearchRetries:  1,
	}
}

// Client implements ports.ReverseGeocoder and ports.PlaceSearcher.
type Client struct {
	cfg     Config
	fetch   *fetch.Client
	limiter *fetch.Limiter
}

// New creates a Nominatim client. limiter must be shared by every Client
// pointing at the same service.
func New(cfg Config, fc *fetch.Client, limiter *fetch.Limiter) *Client {
	return &Client{cfg: cfg, fetch: fc, limiter: limiter}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road          string `json:"road"`
		HouseNumber   string `json:"house_number"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
		Hamlet        string `json:"hamlet"`
		County        string `json:"county"`
	} `json:"address"`
}

// Reverse geocodes p. A nil place means Nominatim had nothing there.
func (c *Client) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(c.cfg.Zoom))
	q.Set("addressdetails", "1")
	q.Set("accept-language", c.cfg.Language)

	resp, err := c.fetch.Do(ctx, fetch.Request{
		Provider:   providerName,
		URL:        c.cfg.BaseURL + "/reverse?" + q.Encode(),
		Timeout:    c.cfg.ReverseTimeout,
		MaxRetries: c.cfg.ReverseRetries,
		Limiter:    c.limiter,
	})
	if err != nil {
		return nil, err
	}

	var r reverseResponse
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("nominatim: decode reverse: %w", err)
	}
	if r.Error != "" {
		return nil, nil
	}

	a := r.Address
	return &domain.GeocodedPlace{
		Road:          a.Road,
		HouseNumber:   a.HouseNumber,
		Neighbourhood: a.Neighbourhood,
		Suburb:        a.Suburb,
		City:          a.City,
		Town:          a.Town,
		Village:       a.Village,
		State:         a.State,
		Postcode:      a.Postcode,
		Hamlet:        a.Hamlet,
		County:        a.County,
		DisplayName:   r.DisplayName,
	}, nil
}

type searchResult struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Type  string `json:"type"`
	Lat   string `json:"lat"`
	Lon   string `json:"lon"`
}

// SearchNearby lists named places inside the +-delta degree viewbox.
func (c *Client) SearchNearby(ctx context.Context, p domain.GeoPoint, delta float64) ([]domain.SearchHit, error) {
	box := geospatial.Viewbox(p.Point(), delta)

	q := url.Values{}
	q.Set("format", "json")
	q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", box.Left(), box.Top(), box.Right(), box.Bottom()))
	q.Set("bounded", "1")
	q.Set("limit", strconv.Itoa(c.cfg.SearchLimit))
	q.Set("accept-language", c.cfg.Language)
	q.Set("addressdetails", "1")

	resp, err := c.fetch.Do(ctx, fetch.Request{
		Provider:   providerName,
		URL:        c.cfg.BaseURL + "/search?" + q.Encode(),
		Timeout:    c.cfg.SearchTimeout,
		MaxRetries: c.cfg.SearchRetries,
		Limiter:    c.limiter,
	})
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("nominatim: decode search: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if r.Name == "" || errLat != nil || errLon != nil {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Name:     r.Name,
			Class:    r.Class,
			Type:     r.Type,
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
		})
	}
	return hits, nil
}
