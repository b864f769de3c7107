package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Simplify reduces the vertex count of a closed polygon with the
// Douglas–Peucker algorithm. Every removed vertex lies within epsilon of the
// simplified outline. A non-positive epsilon returns a copy.
//
// The outline is split at the first vertex and the vertex farthest from it,
// and each half is simplified as an open polyline.
func (p Polygon) Simplify(epsilon float64) Polygon {
	if epsilon <= 0 || len(p) < 4 {
		return append(Polygon(nil), p...)
	}

	far, farDist := 0, -1.0
	for i, v := range p {
		if d := v.Distance(p[0]); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return append(Polygon(nil), p...)
	}

	closed := p.ring()
	dp := simplify.DouglasPeucker(epsilon)
	// LineString simplifies in place, so each half gets its own copy.
	first := dp.LineString(append(orb.LineString(nil), closed[:far+1]...))
	second := dp.LineString(append(orb.LineString(nil), closed[far:]...))

	out := make(Polygon, 0, len(first)+len(second))
	for _, v := range first {
		out = append(out, Point{X: v[0], Y: v[1]})
	}
	// second starts at the far vertex and ends back at p[0].
	for _, v := range second[1 : len(second)-1] {
		out = append(out, Point{X: v[0], Y: v[1]})
	}
	return out
}
