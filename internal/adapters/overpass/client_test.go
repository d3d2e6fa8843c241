package overpass_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geofotos/internal/adapters/overpass"
	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/fetch"
)

const highwayBody = `{"elements":[
  {"type":"way","id":1,"tags":{"ref":"BR-101","name":"Rodovia Governador Mário Covas"},
   "geometry":[{"lat":-27.60,"lon":-48.64},{"lat":-27.61,"lon":-48.64}]},
  {"type":"way","id":2,"tags":{"ref":"SC-401"}},
  {"type":"node","id":3,"lat":-27.605,"lon":-48.641,"tags":{"highway":"milestone","distance":"215"}},
  {"type":"node","id":4,"lat":-27.605,"lon":-48.641,"tags":{"amenity":"bench"}}
]}`

const featuresBody = `{"elements":[
  {"type":"way","id":10,"center":{"lat":-27.6001,"lon":-48.6401},"tags":{"name":"Ponte do Rio Cubatão","bridge":"yes"}},
  {"type":"node","id":11,"lat":-27.6002,"lon":-48.6402,"tags":{"name":"Posto Ipiranga","amenity":"fuel"}},
  {"type":"node","id":12,"lat":-27.6003,"lon":-48.6403,"tags":{"amenity":"bench"}},
  {"type":"relation","id":13,"tags":{"name":"Sem centro"}}
]}`

func newClient(t *testing.T, handler http.HandlerFunc) *overpass.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := overpass.DefaultConfig()
	cfg.URL = srv.URL
	return overpass.New(cfg, fetch.NewClient("geofotos-test", fetch.WithBackoffStep(time.Millisecond)))
}

func TestHighwayData(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		q := r.PostForm.Get("data")
		assert.Contains(t, q, "around:2000,")
		assert.Contains(t, q, `node["highway"="milestone"](around:5000,`)
		assert.Contains(t, q, "out body geom;")
		_, _ = w.Write([]byte(highwayBody))
	})

	data, err := c.HighwayData(context.Background(), domain.GeoPoint{Lat: -27.6, Lon: -48.64}, 2000, 5000)
	require.NoError(t, err)

	require.Len(t, data.Segments, 1)
	assert.Equal(t, "BR-101", data.Segments[0].Ref)
	assert.Equal(t, "Rodovia Governador Mário Covas", data.Segments[0].Name)
	assert.Len(t, data.Segments[0].Geometry, 2)

	require.Len(t, data.Milestones, 1)
	assert.Equal(t, "215", data.Milestones[0].Tag("distance"))
	assert.Equal(t, "node", data.Milestones[0].Kind)
}

func TestNearbyFeatures(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		q := r.PostForm.Get("data")
		assert.Contains(t, q, "(around:100,")
		assert.True(t, strings.HasSuffix(q, "out center tags;"))
		_, _ = w.Write([]byte(featuresBody))
	})

	features, err := c.NearbyFeatures(context.Background(), domain.GeoPoint{Lat: -27.6, Lon: -48.64}, 100)
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "Ponte do Rio Cubatão", features[0].Tag("name"))
	assert.Equal(t, -27.6001, features[0].Location.Lat, "ways use their centre")
	assert.Equal(t, "Posto Ipiranga", features[1].Tag("name"))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(`{"elements":[]}`))
	})

	features, err := c.NearbyFeatures(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1}, 100)
	require.NoError(t, err)
	assert.Empty(t, features)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMalformedBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>rate limited</html>`))
	})

	_, err := c.HighwayData(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1}, 2000, 5000)
	assert.ErrorContains(t, err, "overpass: decode")
}
