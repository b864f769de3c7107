package detection

import (
	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Classify turns contours into machinable shapes for op.
//
// Contours enclosing less than s.MinArea square pixels are discarded. For
// drilling, each remaining contour must also have a positive perimeter and
// a circularity (4π·area/perimeter²) inside s.Circularity, and is reduced
// to its centroid; contours whose moments give no centroid are dropped.
// For milling and cutting the contours pass through as polygons.
//
// Classify is pure and preserves input order.
func Classify(contours []Contour, op profile.Operation, s profile.ShapeSettings) []geometry.Shape {
	shapes := make([]geometry.Shape, 0, len(contours))
	for _, c := range contours {
		if c.Points.Area() < s.MinArea {
			continue
		}

		if op != profile.Drilling {
			shapes = append(shapes, geometry.PolygonShape(append(geometry.Polygon(nil), c.Points...)))
			continue
		}

		if center, ok := drillCenter(c.Points, s.Circularity); ok {
			shapes = append(shapes, geometry.PointShape(center))
		}
	}
	return shapes
}

// drillCenter returns the centroid of a round contour.
func drillCenter(p geometry.Polygon, circularity *profile.Range) (geometry.Point, bool) {
	if p.Perimeter() <= 0 {
		return geometry.Point{}, false
	}
	if circularity != nil && !circularity.Contains(p.Circularity()) {
		return geometry.Point{}, false
	}
	return p.Centroid()
}
