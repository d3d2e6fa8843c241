package geospatial_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
)

func TestHaversine_Symmetric(t *testing.T) {
	pairs := [][2]orb.Point{
		{{-48.5482, -27.5954}, {-48.6500, -27.6000}},
		{{-46.6333, -23.5505}, {-43.1729, -22.9068}},
		{{0, 0}, {179.9, 0.1}},
		{{-2.935, 43.263}, {-2.934, 43.264}},
	}

	for _, p := range pairs {
		ab := geospatial.Distance(p[0], p[1])
		ba := geospatial.Distance(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9)
		assert.Zero(t, geospatial.Distance(p[0], p[0]))
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// São Paulo to Rio de Janeiro, roughly 360 km.
	d := geospatial.Haversine(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360000, d, 5000)

	// One millidegree of longitude at the equator.
	assert.InDelta(t, 111.195, geospatial.Haversine(0, 0, 0, 0.001), 0.01)
}

func TestProjectPointOnSegment_Clamped(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{0.01, 0}

	cases := []struct {
		name string
		p    orb.Point
		want float64
	}{
		{"before start", orb.Point{-0.005, 0.001}, 0},
		{"after end", orb.Point{0.02, -0.001}, 1},
		{"middle", orb.Point{0.005, 0.001}, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proj := geospatial.ProjectPointOnSegment(tc.p, a, b)
			assert.GreaterOrEqual(t, proj.Fraction, 0.0)
			assert.LessOrEqual(t, proj.Fraction, 1.0)
			assert.InDelta(t, tc.want, proj.Fraction, 1e-6)
		})
	}
}

func TestProjectPointOnSegment_Endpoint(t *testing.T) {
	a := orb.Point{-48.55, -27.59}
	b := orb.Point{-48.54, -27.58}

	proj := geospatial.ProjectPointOnSegment(a, a, b)
	assert.Zero(t, proj.Fraction)
	assert.InDelta(t, 0, proj.Distance, 1e-6)
}

func TestProjectPointOnSegment_Degenerate(t *testing.T) {
	a := orb.Point{0, 0}
	p := orb.Point{0.001, 0}

	proj := geospatial.ProjectPointOnSegment(p, a, a)
	assert.Zero(t, proj.Fraction)
	assert.InDelta(t, geospatial.Distance(p, a), proj.Distance, 1e-9)
}

func TestProjectPointOnPolyline(t *testing.T) {
	line := orb.LineString{{0, 0}, {0.01, 0}, {0.02, 0}}

	proj, ok := geospatial.ProjectPointOnPolyline(orb.Point{0.015, 0.0001}, line)
	require.True(t, ok)
	assert.Equal(t, 1, proj.SegmentIndex)
	assert.InDelta(t, geospatial.Haversine(0, 0, 0, 0.015), proj.DistanceAlong, 0.5)
	assert.InDelta(t, geospatial.Haversine(0, 0, 0.0001, 0), proj.DistanceFromLine, 0.5)
}

func TestProjectPointOnPolyline_TooShort(t *testing.T) {
	_, ok := geospatial.ProjectPointOnPolyline(orb.Point{0, 0}, orb.LineString{{0, 0}})
	assert.False(t, ok)

	_, ok = geospatial.ProjectPointOnPolyline(orb.Point{0, 0}, nil)
	assert.False(t, ok)
}

func TestChainSegments_AnyOrderAndOrientation(t *testing.T) {
	first := orb.LineString{{0, 0}, {1, 0}}
	second := orb.LineString{{1, 0}, {2, 0}}

	cases := map[string][]orb.LineString{
		"in order":        {first, second},
		"swapped":         {second, first},
		"second reversed": {first, reversed(second)},
		"first reversed":  {reversed(first), second},
		"both reversed":   {reversed(second), reversed(first)},
	}

	for name, segs := range cases {
		t.Run(name, func(t *testing.T) {
			chain := geospatial.ChainSegments(segs)
			require.Len(t, chain, 3)
			assert.Equal(t, orb.Point{1, 0}, chain[1])

			ends := []orb.Point{chain[0], chain[2]}
			assert.ElementsMatch(t, []orb.Point{{0, 0}, {2, 0}}, ends)
		})
	}
}

func TestChainSegments_Tolerance(t *testing.T) {
	segs := []orb.LineString{
		{{0, 0}, {0.001, 0}},
		{{0.00109, 0.00005}, {0.002, 0}},
	}

	chain := geospatial.ChainSegments(segs)
	assert.Len(t, chain, 3)
}

func TestChainSegments_DropsDisconnected(t *testing.T) {
	segs := []orb.LineString{
		{{0, 0}, {0.001, 0}},
		{{0.5, 0.5}, {0.6, 0.6}},
		{{0.001, 0}, {0.002, 0}},
	}

	chain := geospatial.ChainSegments(segs)
	assert.Equal(t, orb.LineString{{0, 0}, {0.001, 0}, {0.002, 0}}, chain)
}

func TestChainSegments_Empty(t *testing.T) {
	assert.Nil(t, geospatial.ChainSegments(nil))
}

func TestViewbox(t *testing.T) {
	b := geospatial.Viewbox(orb.Point{-48.5, -27.5}, 0.0009)
	assert.InDelta(t, -48.5009, b.Left(), 1e-9)
	assert.InDelta(t, -48.4991, b.Right(), 1e-9)
	assert.InDelta(t, -27.4991, b.Top(), 1e-9)
	assert.InDelta(t, -27.5009, b.Bottom(), 1e-9)
}

func reversed(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}
