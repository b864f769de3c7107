package detection

import (
	"github.com/asim/quadtree"

	"github.com/ironsheep/pcb-toolpath/internal/geometry"
)

// MergePoints removes point shapes lying within distance of an earlier
// point shape. The first occurrence wins, so order is preserved. Polygon
// shapes and a non-positive distance leave the input untouched.
//
// An annular pad binarizes to a ring, which traces as two concentric
// borders with the same centre; merging keeps one drill hit per pad.
func MergePoints(shapes []geometry.Shape, distance float64) []geometry.Shape {
	if distance <= 0 || len(shapes) < 2 {
		return shapes
	}

	minX, minY, maxX, maxY, found := pointExtent(shapes)
	if !found {
		return shapes
	}

	// Margin keeps points on the extent edge inside the tree boundary.
	margin := distance + 1
	tree := quadtree.New(quadtree.NewAABB(
		quadtree.NewPoint((minX+maxX)/2, (minY+maxY)/2, nil),
		quadtree.NewPoint((maxX-minX)/2+margin, (maxY-minY)/2+margin, nil),
	), 0, nil)

	// overflow holds points the tree refused once a leaf hit its depth limit.
	var overflow []*quadtree.Point
	out := make([]geometry.Shape, 0, len(shapes))
	for _, s := range shapes {
		if s.Kind != geometry.KindPoint {
			out = append(out, s)
			continue
		}

		near := tree.Search(quadtree.NewAABB(
			quadtree.NewPoint(s.Point.X, s.Point.Y, nil),
			quadtree.NewPoint(distance, distance, nil),
		))
		if hasWithin(near, s.Point, distance) || hasWithin(overflow, s.Point, distance) {
			continue
		}

		if p := quadtree.NewPoint(s.Point.X, s.Point.Y, nil); !tree.Insert(p) {
			overflow = append(overflow, p)
		}
		out = append(out, s)
	}
	return out
}

func hasWithin(points []*quadtree.Point, p geometry.Point, distance float64) bool {
	for _, q := range points {
		x, y := q.Coordinates()
		if p.Distance(geometry.Point{X: x, Y: y}) < distance {
			return true
		}
	}
	return false
}

func pointExtent(shapes []geometry.Shape) (minX, minY, maxX, maxY float64, found bool) {
	for _, s := range shapes {
		if s.Kind != geometry.KindPoint {
			continue
		}
		p := s.Point
		if !found {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			found = true
			continue
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY, found
}
