package imaging

import (
	"image"
	"testing"
)

func TestPeelEdges_SeversBridge(t *testing.T) {
	m := maskFromRects(70, 40,
		image.Rect(10, 10, 30, 30),
		image.Rect(40, 10, 60, 30),
		image.Rect(30, 19, 40, 21), // two-cell bridge
	)

	peeled := PeelEdges(m)
	if peeled.At(35, 19) || peeled.At(35, 20) {
		t.Error("bridge cells should be cleared")
	}
	if !peeled.At(20, 20) || !peeled.At(50, 20) {
		t.Error("block interiors should survive")
	}
	if peeled.At(10, 10) {
		t.Error("boundary cells should be cleared")
	}
	if !m.At(35, 19) {
		t.Error("PeelEdges must not modify its input")
	}
}

func TestPeelEdges_AllSides(t *testing.T) {
	m := maskFromRects(20, 20, image.Rect(5, 5, 15, 15))

	peeled := PeelEdges(m)
	for _, p := range []image.Point{{10, 5}, {10, 14}, {5, 10}, {14, 10}} {
		if peeled.At(p.X, p.Y) {
			t.Errorf("boundary cell %v should be cleared", p)
		}
	}
	for _, p := range []image.Point{{10, 6}, {10, 13}, {6, 10}, {13, 10}} {
		if !peeled.At(p.X, p.Y) {
			t.Errorf("cell %v one step inside should survive", p)
		}
	}
	if got, want := peeled.Count(), 8*8; got != want {
		t.Errorf("foreground after peel: got %d, want %d", got, want)
	}
}

func TestPeelEdges_Empty(t *testing.T) {
	if got := PeelEdges(NewMask(5, 5)).Count(); got != 0 {
		t.Errorf("empty mask should stay empty, got %d cells", got)
	}
}
