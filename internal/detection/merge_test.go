package detection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/pcb-toolpath/internal/geometry"
)

func TestMergePoints(t *testing.T) {
	poly := geometry.PolygonShape(rectPolygon(0, 0, 5, 5))
	shapes := []geometry.Shape{
		geometry.PointShape(geometry.Point{X: 10, Y: 10}),
		poly,
		geometry.PointShape(geometry.Point{X: 11, Y: 10}),
		geometry.PointShape(geometry.Point{X: 50, Y: 50}),
		geometry.PointShape(geometry.Point{X: 10, Y: 12.5}),
		geometry.PointShape(geometry.Point{X: 10, Y: 14}),
	}

	got := MergePoints(shapes, 3)
	want := []geometry.Shape{
		geometry.PointShape(geometry.Point{X: 10, Y: 10}),
		poly,
		geometry.PointShape(geometry.Point{X: 50, Y: 50}),
		geometry.PointShape(geometry.Point{X: 10, Y: 14}),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergePoints mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(shapes, MergePoints(shapes, 0)); diff != "" {
		t.Errorf("zero distance should keep every shape (-want +got):\n%s", diff)
	}
}

func TestMergePoints_ManyClustered(t *testing.T) {
	// Enough holes in a small area to force several tree levels.
	var shapes []geometry.Shape
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			p := geometry.Point{X: float64(x * 5), Y: float64(y * 5)}
			shapes = append(shapes, geometry.PointShape(p), geometry.PointShape(geometry.Point{X: p.X + 0.5, Y: p.Y}))
		}
	}

	got := MergePoints(shapes, 1)
	if len(got) != 400 {
		t.Errorf("expected one point per grid cell (400), got %d", len(got))
	}
}
