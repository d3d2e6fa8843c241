// Package overpass queries the Overpass API for highway geometry, milestones
// and named map features.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/paulmach/osm"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/fetch"
)

const providerName = "overpass"

// DefaultRefPattern matches federal (BR-) and state highway references.
const DefaultRefPattern = "^(BR|AC|AL|AP|AM|BA|CE|DF|ES|GO|MA|MT|MS|MG|PA|PB|PR|PE|PI|RJ|RN|RS|RO|RR|SC|SE|SP|TO)-"

// Config holds endpoint and retry settings.
type Config struct {
	URL            string
	RefPattern     string
	HighwayTimeout time.Duration
	HighwayRetries int
	POITimeout     time.Duration
	POIRetries     int
}

// DefaultConfig returns the public Overpass endpoint settings.
func DefaultConfig() Config {
	return Config{
		URL:            "https://overpass-api.de/api/interpreter",
		RefPattern:     DefaultRefPattern,
		HighwayTimeout: 25 * time.Second,
		HighwayRetries: 1,
		POITimeout:     18 * time.Second,
		POIRetries:     1,
	}
}

// Client implements ports.HighwayDataProvider and ports.FeatureProvider.
type Client struct {
	cfg   Config
	fetch *fetch.Client
}

// New creates an Overpass client.
func New(cfg Config, fc *fetch.Client) *Client {
	if cfg.RefPattern == "" {
		cfg.RefPattern = DefaultRefPattern
	}
	return &Client{cfg: cfg, fetch: fc}
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type element struct {
	Type     osm.Type `json:"type"`
	ID       int64    `json:"id"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Center   *latLon  `json:"center,omitempty"`
	Geometry []latLon `json:"geometry,omitempty"`
	Tags     osm.Tags `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// location returns the node position or the way/relation centre.
func (e element) location() (domain.GeoPoint, bool) {
	if e.Type == osm.TypeNode && (e.Lat != 0 || e.Lon != 0) {
		return domain.GeoPoint{Lat: e.Lat, Lon: e.Lon}, true
	}
	if e.Center != nil {
		return domain.GeoPoint{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	if e.Lat != 0 || e.Lon != 0 {
		return domain.GeoPoint{Lat: e.Lat, Lon: e.Lon}, true
	}
	return domain.GeoPoint{}, false
}

func (c *Client) query(ctx context.Context, q string, timeout time.Duration, retries int) (*response, error) {
	resp, err := c.fetch.Do(ctx, fetch.Request{
		Provider:   providerName,
		URL:        c.cfg.URL,
		Form:       url.Values{"data": {q}},
		Timeout:    timeout,
		MaxRetries: retries,
	})
	if err != nil {
		return nil, err
	}

	var out response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("overpass: decode: %w", err)
	}
	return &out, nil
}

// HighwayData fetches numbered-highway ways with geometry around p and
// milestone nodes in a wider radius, in one request.
func (c *Client) HighwayData(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error) {
	q := fmt.Sprintf(`[out:json][timeout:20];
(
  way["ref"~"%s"](around:%.0f,%f,%f);
);
out body geom;
node["highway"="milestone"](around:%.0f,%f,%f);
out body;`,
		c.cfg.RefPattern, wayRadius, p.Lat, p.Lon,
		milestoneRadius, p.Lat, p.Lon,
	)

	resp, err := c.query(ctx, q, c.cfg.HighwayTimeout, c.cfg.HighwayRetries)
	if err != nil {
		return nil, err
	}

	data := &domain.HighwayData{}
	for _, el := range resp.Elements {
		switch {
		case el.Type == osm.TypeWay && el.Tags.Find("ref") != "" && len(el.Geometry) > 0:
			seg := domain.HighwaySegment{
				Ref:      el.Tags.Find("ref"),
				Name:     el.Tags.Find("name"),
				Geometry: make([]domain.GeoPoint, len(el.Geometry)),
			}
			for i, g := range el.Geometry {
				seg.Geometry[i] = domain.GeoPoint{Lat: g.Lat, Lon: g.Lon}
			}
			data.Segments = append(data.Segments, seg)

		case el.Type == osm.TypeNode && el.Tags.Find("highway") == "milestone":
			data.Milestones = append(data.Milestones, domain.MapFeature{
				ID:       el.ID,
				Kind:     string(el.Type),
				Tags:     el.Tags.Map(),
				Location: domain.GeoPoint{Lat: el.Lat, Lon: el.Lon},
			})
		}
	}
	return data, nil
}

// NearbyFeatures fetches named reference features (amenities, structures,
// natural and historic features) within radius meters.
func (c *Client) NearbyFeatures(ctx context.Context, p domain.GeoPoint, radius float64) ([]domain.MapFeature, error) {
	around := fmt.Sprintf("(around:%.0f,%f,%f)", radius, p.Lat, p.Lon)
	q := `[out:json][timeout:15];
(
  nwr["amenity"~"fuel|hospital|clinic|school|place_of_worship|police|fire_station|bus_station"]["name"]` + around + `;
  nwr["shop"~"supermarket|department_store|mall"]["name"]` + around + `;
  nwr["man_made"]["name"]` + around + `;
  nwr["bridge"]["name"]` + around + `;
  way["bridge"="yes"]["name"]` + around + `;
  way["bridge"="viaduct"]["name"]` + around + `;
  nwr["natural"]["name"]` + around + `;
  nwr["waterway"]["name"]` + around + `;
  nwr["junction"]["name"]` + around + `;
  nwr["historic"]["name"]` + around + `;
  nwr["tourism"]["name"]` + around + `;
);
out center tags;`

	resp, err := c.query(ctx, q, c.cfg.POITimeout, c.cfg.POIRetries)
	if err != nil {
		return nil, err
	}

	features := make([]domain.MapFeature, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if el.Tags.Find("name") == "" {
			continue
		}
		loc, ok := el.location()
		if !ok {
			continue
		}
		features = append(features, domain.MapFeature{
			ID:       el.ID,
			Kind:     string(el.Type),
			Tags:     el.Tags.Map(),
			Location: loc,
		})
	}
	return features, nil
}
