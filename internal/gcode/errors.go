package gcode

import (
	"fmt"

	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// EmptyGeometryError reports that no shapes survived filtering, so there
// is nothing to machine. Callers decide whether that is acceptable.
type EmptyGeometryError struct {
	Operation profile.Operation
}

func (e *EmptyGeometryError) Error() string {
	return fmt.Sprintf("no %s geometry to emit", e.Operation)
}

// DepthError reports a Z coordinate that is neither the safe height nor
// the configured depth.
type DepthError struct {
	Line  int
	Value float64
	Safe  float64
	Depth float64
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("line %d: Z%g is neither safe height %g nor depth %g", e.Line, e.Value, e.Safe, e.Depth)
}

// SequenceError reports commands in an unsafe order, such as motion with
// the spindle stopped or a rapid move while the tool is below safe height.
type SequenceError struct {
	Line   int
	Reason string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseError reports a line that is not part of the supported G-code subset.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("line %d: unsupported instruction %q", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }
