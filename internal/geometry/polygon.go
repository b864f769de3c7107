package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Polygon is an ordered, implicitly closed sequence of vertices.
type Polygon []Point

// ring returns p as an explicitly closed orb ring.
func (p Polygon) ring() orb.Ring {
	r := make(orb.Ring, 0, len(p)+1)
	for _, v := range p {
		r = append(r, orb.Point{v.X, v.Y})
	}
	if len(p) > 0 {
		r = append(r, r[0])
	}
	return r
}

// SignedArea returns the shoelace area; positive for counter-clockwise
// vertex order in a Y-up frame.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	_, area := planar.CentroidArea(p.ring())
	return area
}

// Area returns the enclosed area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Perimeter returns the length of the closed outline, including the edge
// from the last vertex back to the first.
func (p Polygon) Perimeter() float64 {
	if len(p) < 2 {
		return 0
	}
	return planar.Length(p.ring())
}

// Centroid returns the area-weighted centre. ok is false when the polygon
// encloses no area.
func (p Polygon) Centroid() (c Point, ok bool) {
	if len(p) < 3 {
		return Point{}, false
	}
	centre, area := planar.CentroidArea(p.ring())
	if area == 0 {
		return Point{}, false
	}
	return Point{X: centre[0], Y: centre[1]}, true
}

// Circularity returns 4π·area/perimeter², which is 1 for a circle and
// approaches 0 for long thin shapes. Zero-perimeter polygons return 0.
func (p Polygon) Circularity() float64 {
	perimeter := p.Perimeter()
	if perimeter <= 0 {
		return 0
	}
	return 4 * math.Pi * p.Area() / (perimeter * perimeter)
}

// Bounds returns the axis-aligned bounding box corners.
func (p Polygon) Bounds() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	b := p.ring().Bound()
	return Point{X: b.Min[0], Y: b.Min[1]}, Point{X: b.Max[0], Y: b.Max[1]}
}

// Compact drops vertices that lie on a straight run between their
// neighbours. The outline is unchanged.
func (p Polygon) Compact() Polygon {
	if len(p) < 3 {
		return append(Polygon(nil), p...)
	}
	out := make(Polygon, 0, len(p))
	n := len(p)
	for i := range p {
		prev, next := p[(i+n-1)%n], p[(i+1)%n]
		in, outDir := p[i].Sub(prev), next.Sub(p[i])
		straight := in.Cross(outDir) == 0 && in.X*outDir.X+in.Y*outDir.Y > 0
		if !straight {
			out = append(out, p[i])
		}
	}
	if len(out) == 0 {
		// Degenerate: every vertex is collinear with its neighbours.
		return append(Polygon(nil), p...)
	}
	return out
}
