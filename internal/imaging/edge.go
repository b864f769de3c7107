package imaging

import (
	"github.com/anthonynsimon/bild/effect"
)

// PeelEdges returns a copy of m with every foreground cell that sits on a
// boundary cleared.
//
// A cell is on a boundary when any cell of its 3×3 neighbourhood is
// background. Peeling is a single erosion with a 3×3 window: every region
// loses one cell on each side, which severs bridges up to two cells wide and
// separates pads that the binarizer merged. Cells on the image border are
// judged against their extended edge, so regions touching the frame keep
// that side.
//
// Parameters:
//   - m: Source mask. It is not modified.
//
// Returns:
//   - *Mask: The peeled mask, same dimensions as m.
func PeelEdges(m *Mask) *Mask {
	return MaskFromImage(effect.Erode(m.Gray(), 1))
}
