package geometry

import "fmt"

// OutOfBoundsError reports a coordinate outside the board work envelope.
// Coordinates are never clamped into range; a clamped cut would be wrong.
type OutOfBoundsError struct {
	Axis  string  // "X" or "Y"
	Value float64 // the offending coordinate
	Limit float64 // the envelope size on that axis
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s-coordinate %g out of bounds [0, %g]", e.Axis, e.Value, e.Limit)
}

// Envelope is the rectangle [0, Width] × [0, Height].
type Envelope struct {
	Width  float64
	Height float64
}

// Check returns an *OutOfBoundsError if p lies outside the envelope.
func (e Envelope) Check(p Point) error {
	if err := e.CheckX(p.X); err != nil {
		return err
	}
	return e.CheckY(p.Y)
}

// CheckX validates a single X coordinate.
func (e Envelope) CheckX(x float64) error {
	if x < 0 || x > e.Width || x != x {
		return &OutOfBoundsError{Axis: "X", Value: x, Limit: e.Width}
	}
	return nil
}

// CheckY validates a single Y coordinate.
func (e Envelope) CheckY(y float64) error {
	if y < 0 || y > e.Height || y != y {
		return &OutOfBoundsError{Axis: "Y", Value: y, Limit: e.Height}
	}
	return nil
}
