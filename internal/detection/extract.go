package detection

import (
	"image"

	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Extract finds the contours of the foreground regions in m.
//
// When s.EdgePrepass is set the mask is peeled first so regions joined by
// thin bridges are traced separately. Each contour is reduced to its
// corner points and, when s.SimplifyRatio is positive, simplified with a
// tolerance of SimplifyRatio times its perimeter.
func Extract(m *imaging.Mask, s profile.ShapeSettings) []Contour {
	if s.EdgePrepass {
		m = imaging.PeelEdges(m)
	}

	contours := FindContours(m, s.Retrieval)
	for i := range contours {
		pts := contours[i].Points.Compact()
		if s.SimplifyRatio > 0 {
			pts = pts.Simplify(s.SimplifyRatio * pts.Perimeter())
		}
		contours[i].Points = pts
	}
	return contours
}

// ExcludeInside drops contours whose bounding box lies entirely inside one
// of boxes. Boxes use image.Rectangle conventions (Max exclusive) in the
// same pixel space as the contours. Parent links of the kept contours are
// remapped, and become -1 when the parent was dropped.
func ExcludeInside(contours []Contour, boxes []image.Rectangle) []Contour {
	if len(boxes) == 0 {
		return contours
	}

	remap := make([]int, len(contours))
	kept := make([]Contour, 0, len(contours))
	for i, c := range contours {
		remap[i] = -1
		if insideAny(c, boxes) {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, c)
	}

	for i := range kept {
		if p := kept[i].Parent; p >= 0 {
			kept[i].Parent = remap[p]
		}
	}
	return kept
}

func insideAny(c Contour, boxes []image.Rectangle) bool {
	min, max := c.Points.Bounds()
	for _, b := range boxes {
		if min.X >= float64(b.Min.X) && min.Y >= float64(b.Min.Y) &&
			max.X < float64(b.Max.X) && max.Y < float64(b.Max.Y) {
			return true
		}
	}
	return false
}
