package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// ChainTolerance is the per-axis coordinate tolerance, in degrees, under
// which two segment endpoints are treated as the same node (about 15 m).
const ChainTolerance = 0.00015

// ChainSegments joins segments whose endpoints meet into one polyline.
//
// The chain starts from the first segment and grows from either end. Segments
// may be stored in either orientation. Each segment is used at most once and
// segments that never touch the chain are dropped.
func ChainSegments(segments []orb.LineString) orb.LineString {
	if len(segments) == 0 {
		return nil
	}

	chain := append(orb.LineString(nil), segments[0]...)
	used := make([]bool, len(segments))
	used[0] = true

	for changed := true; changed; {
		changed = false
		for i, seg := range segments {
			if used[i] || len(seg) == 0 || len(chain) == 0 {
				continue
			}

			chainStart, chainEnd := chain[0], chain[len(chain)-1]
			segStart, segEnd := seg[0], seg[len(seg)-1]

			switch {
			case pointsClose(chainEnd, segStart):
				chain = append(chain, seg[1:]...)
			case pointsClose(chainEnd, segEnd):
				chain = append(chain, reversed(seg)[1:]...)
			case pointsClose(chainStart, segEnd):
				chain = append(append(orb.LineString(nil), seg[:len(seg)-1]...), chain...)
			case pointsClose(chainStart, segStart):
				rev := reversed(seg)
				chain = append(append(orb.LineString(nil), rev[:len(rev)-1]...), chain...)
			default:
				continue
			}

			used[i] = true
			changed = true
		}
	}

	return chain
}

func pointsClose(a, b orb.Point) bool {
	return math.Abs(a.Lat()-b.Lat()) < ChainTolerance && math.Abs(a.Lon()-b.Lon()) < ChainTolerance
}

func reversed(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}
