// Package geometry provides the planar value types shared by the shape
// extractor, the coordinate mapper and the toolpath emitter.
package geometry

import (
	"fmt"
	"math"
)

// Point is a 2-D coordinate, in pixels or board units depending on the stage.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cross returns the z component of p × q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// ShapeKind tags the variant held by a Shape.
type ShapeKind int

const (
	// KindPolygon is an outline to trace (cutting, milling).
	KindPolygon ShapeKind = iota
	// KindPoint is a single location to plunge at (drilling).
	KindPoint
)

func (k ShapeKind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Shape is either a closed polygon or a point.
type Shape struct {
	Kind    ShapeKind `json:"kind"`
	Polygon Polygon   `json:"polygon,omitempty"`
	Point   Point     `json:"point"`
}

// PolygonShape wraps a polygon.
func PolygonShape(p Polygon) Shape {
	return Shape{Kind: KindPolygon, Polygon: p}
}

// PointShape wraps a point.
func PointShape(p Point) Shape {
	return Shape{Kind: KindPoint, Point: p}
}

// Points returns every coordinate carried by the shape.
func (s Shape) Points() []Point {
	if s.Kind == KindPoint {
		return []Point{s.Point}
	}
	return s.Polygon
}

// Transform returns a copy of the shape with fn applied to every coordinate.
// The first error returned by fn aborts the transform.
func (s Shape) Transform(fn func(Point) (Point, error)) (Shape, error) {
	if s.Kind == KindPoint {
		p, err := fn(s.Point)
		if err != nil {
			return Shape{}, err
		}
		return PointShape(p), nil
	}

	out := make(Polygon, len(s.Polygon))
	for i, p := range s.Polygon {
		q, err := fn(p)
		if err != nil {
			return Shape{}, err
		}
		out[i] = q
	}
	return PolygonShape(out), nil
}
