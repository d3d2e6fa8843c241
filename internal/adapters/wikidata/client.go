// Package wikidata finds geolocated Wikidata entities through the SPARQL
// query service.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/fetch"
)

const providerName = "wikidata"

// Config holds endpoint and retry settings.
type Config struct {
	URL       string
	Languages string
	Limit     int
	Timeout   time.Duration
	Retries   int
}

// DefaultConfig returns the public query service settings.
func DefaultConfig() Config {
	return Config{
		URL:       "https://query.wikidata.org/sparql",
		Languages: "pt,en",
		Limit:     30,
		Timeout:   12 * time.Second,
		Retries:   1,
	}
}

// Client implements ports.KnowledgeGraph.
type Client struct {
	cfg   Config
	fetch *fetch.Client
}

// New creates a Wikidata client.
func New(cfg Config, fc *fetch.Client) *Client {
	return &Client{cfg: cfg, fetch: fc}
}

type binding struct {
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

func (c *Client) aroundQuery(p domain.GeoPoint, radiusKm float64) string {
	return fmt.Sprintf(`SELECT ?item ?itemLabel ?itemDescription ?lat ?lon ?instanceof ?instanceofLabel WHERE {
  SERVICE wikibase:around {
    ?item wdt:P625 ?location .
    bd:serviceParam wikibase:center "Point(%f %f)"^^geo:wktLiteral .
    bd:serviceParam wikibase:radius "%s" .
  }
  ?item wdt:P625 ?location .
  BIND(geof:latitude(?location) AS ?lat)
  BIND(geof:longitude(?location) AS ?lon)
  OPTIONAL { ?item wdt:P31 ?instanceof . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
}
LIMIT %d`,
		p.Lon, p.Lat,
		strconv.FormatFloat(radiusKm, 'f', -1, 64),
		c.cfg.Languages,
		c.cfg.Limit,
	)
}

// NearbyEntities returns entities within radiusKm of p, one per item.
// Items with several instance-of values keep the first label seen.
func (c *Client) NearbyEntities(ctx context.Context, p domain.GeoPoint, radiusKm float64) ([]domain.KnowledgeHit, error) {
	resp, err := c.fetch.Do(ctx, fetch.Request{
		Provider:   providerName,
		Method:     http.MethodPost,
		URL:        c.cfg.URL,
		Form:       url.Values{"query": {c.aroundQuery(p, radiusKm)}},
		Header:     http.Header{"Accept": {"application/sparql-results+json, application/json"}},
		Timeout:    c.cfg.Timeout,
		MaxRetries: c.cfg.Retries,
	})
	if err != nil {
		return nil, err
	}

	var r sparqlResponse
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("wikidata: decode: %w", err)
	}

	var (
		hits  []domain.KnowledgeHit
		index = make(map[string]int)
	)
	for _, b := range r.Results.Bindings {
		item := b["item"].Value
		if item == "" {
			continue
		}
		instance := b["instanceofLabel"].Value

		if i, seen := index[item]; seen {
			if instance != "" {
				hits[i].Instances = append(hits[i].Instances, instance)
			}
			continue
		}

		lat, errLat := strconv.ParseFloat(b["lat"].Value, 64)
		lon, errLon := strconv.ParseFloat(b["lon"].Value, 64)
		if errLat != nil || errLon != nil {
			continue
		}

		hit := domain.KnowledgeHit{
			ItemID:   item,
			Name:     b["itemLabel"].Value,
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
		}
		if instance != "" {
			hit.Instances = []string{instance}
		}
		index[item] = len(hits)
		hits = append(hits, hit)
	}
	return hits, nil
}
