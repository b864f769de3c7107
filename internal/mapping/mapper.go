// Package mapping converts shapes from working-image pixels to board units.
package mapping

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// DegenerateImageError reports an image with a zero dimension, for which no
// scale factor exists.
type DegenerateImageError struct {
	Width  int
	Height int
}

func (e *DegenerateImageError) Error() string {
	return fmt.Sprintf("degenerate image %dx%d: cannot scale to board", e.Width, e.Height)
}

// Mapper is an affine pixel to board transform. The default transform only
// scales (scale_x = board_width / image_width, likewise for Y) and keeps the
// image orientation; mirroring, flipping and offsets are opt-in.
//
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	transform *mat.Dense
	envelope  geometry.Envelope
	scaleX    float64
	scaleY    float64
}

// New builds the transform for an image of width×height pixels onto the
// board described by machine.
func New(width, height int, machine profile.MachineProfile, opts profile.MappingSettings) (*Mapper, error) {
	if width <= 0 || height <= 0 {
		return nil, &DegenerateImageError{Width: width, Height: height}
	}

	sx := machine.BoardWidth / float64(width)
	sy := machine.BoardHeight / float64(height)

	scale := mat.NewDense(3, 3, []float64{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	})

	// Mirroring reflects about the board centre line, so the result stays
	// inside the board.
	mx, tx := 1.0, 0.0
	if opts.MirrorX {
		mx, tx = -1, machine.BoardWidth
	}
	my, ty := 1.0, 0.0
	if opts.FlipY {
		my, ty = -1, machine.BoardHeight
	}
	orient := mat.NewDense(3, 3, []float64{
		mx, 0, tx,
		0, my, ty,
		0, 0, 1,
	})

	offset := mat.NewDense(3, 3, []float64{
		1, 0, opts.OffsetX,
		0, 1, opts.OffsetY,
		0, 0, 1,
	})

	var oriented, m mat.Dense
	oriented.Mul(orient, scale)
	m.Mul(offset, &oriented)

	return &Mapper{
		transform: &m,
		envelope:  geometry.Envelope{Width: machine.BoardWidth, Height: machine.BoardHeight},
		scaleX:    sx,
		scaleY:    sy,
	}, nil
}

// Scale returns the pixel to board scale factors.
func (m *Mapper) Scale() (sx, sy float64) {
	return m.scaleX, m.scaleY
}

// Map transforms one pixel coordinate. A result outside the board returns
// *geometry.OutOfBoundsError; coordinates are never clamped.
func (m *Mapper) Map(p geometry.Point) (geometry.Point, error) {
	var out mat.VecDense
	out.MulVec(m.transform, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))

	q := geometry.Point{X: out.AtVec(0), Y: out.AtVec(1)}
	if err := m.envelope.Check(q); err != nil {
		return geometry.Point{}, err
	}
	return q, nil
}

// MapShapes transforms every shape, preserving order and kind. The first
// out-of-bounds coordinate aborts the mapping.
func (m *Mapper) MapShapes(shapes []geometry.Shape) ([]geometry.Shape, error) {
	out := make([]geometry.Shape, len(shapes))
	for i, s := range shapes {
		mapped, err := s.Transform(m.Map)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		out[i] = mapped
	}
	return out, nil
}
