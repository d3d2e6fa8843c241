package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// SegmentProjection is the result of projecting a point onto a segment.
type SegmentProjection struct {
	Fraction float64 // position along the segment, always within [0,1]
	Distance float64 // meters from the point to its projection
}

// LineProjection is the result of projecting a point onto a polyline.
type LineProjection struct {
	DistanceAlong    float64 // meters from the polyline start to the projection
	DistanceFromLine float64 // meters from the point to the projection
	SegmentIndex     int
}

// ProjectPointOnSegment projects p onto the segment a-b.
//
// The projection works in a plane centred on p where longitude is scaled by
// cos(lat). That is accurate enough for the few-kilometre segments of a road
// and keeps the fraction monotonic along the segment.
func ProjectPointOnSegment(p, a, b orb.Point) SegmentProjection {
	cosLat := math.Cos(toRad(p.Lat()))

	ax := (a.Lon() - p.Lon()) * cosLat
	ay := a.Lat() - p.Lat()
	bx := (b.Lon() - p.Lon()) * cosLat
	by := b.Lat() - p.Lat()

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return SegmentProjection{Fraction: 0, Distance: Distance(p, a)}
	}

	t := (-ax*dx - ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	proj := orb.Point{
		a.Lon() + t*(b.Lon()-a.Lon()),
		a.Lat() + t*(b.Lat()-a.Lat()),
	}

	return SegmentProjection{Fraction: t, Distance: Distance(p, proj)}
}

// ProjectPointOnPolyline projects p onto the closest segment of line.
// It reports false when line has fewer than two vertices.
func ProjectPointOnPolyline(p orb.Point, line orb.LineString) (LineProjection, bool) {
	if len(line) < 2 {
		return LineProjection{}, false
	}

	best := LineProjection{DistanceFromLine: math.Inf(1)}
	var bestFraction float64

	for i := 0; i < len(line)-1; i++ {
		proj := ProjectPointOnSegment(p, line[i], line[i+1])
		if proj.Distance < best.DistanceFromLine {
			best.DistanceFromLine = proj.Distance
			best.SegmentIndex = i
			bestFraction = proj.Fraction
		}
	}

	var along float64
	for i := 0; i < best.SegmentIndex; i++ {
		along += Distance(line[i], line[i+1])
	}
	along += bestFraction * Distance(line[best.SegmentIndex], line[best.SegmentIndex+1])
	best.DistanceAlong = along

	return best, true
}

// Length returns the along-line length of line in meters.
func Length(line orb.LineString) float64 {
	var total float64
	for i := 0; i < len(line)-1; i++ {
		total += Distance(line[i], line[i+1])
	}
	return total
}
