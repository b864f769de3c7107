package gcode

import (
	"fmt"
	"io"
	"math"

	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// zTolerance is half of the last written digit, so a Z read back from
// text still matches the profile value it was formatted from.
var zTolerance = 0.5 * math.Pow10(-Precision)

// Validate checks a command sequence against a machine profile:
//
//   - every X and Y lies inside the board envelope (*geometry.OutOfBoundsError)
//   - every Z is the safe height or the profile depth (*DepthError)
//   - the spindle is running for every XY move, no rapid move travels or
//     plunges below safe height, and nothing follows M30 (*SequenceError)
//
// Errors carry the 1-based position of the offending command.
func Validate(commands []Command, m profile.MachineProfile) error {
	return validate(commands, nil, m)
}

// ValidateText parses G-code text and validates it. Errors carry source
// line numbers.
func ValidateText(r io.Reader, m profile.MachineProfile) error {
	cmds, lines, err := Parse(r)
	if err != nil {
		return err
	}
	return validate(cmds, lines, m)
}

type machineState struct {
	spindle bool
	ended   bool
	x, y, z *float64
}

func validate(commands []Command, lines []int, m profile.MachineProfile) error {
	// The envelope is compared as printed: a coordinate and a board size that
	// write out the same are equal.
	env := geometry.Envelope{Width: printed(m.BoardWidth), Height: printed(m.BoardHeight)}
	lineOf := func(i int) int {
		if lines != nil {
			return lines[i]
		}
		return i + 1
	}

	var st machineState
	for i, c := range commands {
		line := lineOf(i)
		if st.ended {
			return &SequenceError{Line: line, Reason: fmt.Sprintf("%s after end of program", c.Kind)}
		}

		switch c.Kind {
		case SpindleStart:
			st.spindle = true
		case SpindleStop:
			st.spindle = false
		case EndProgram:
			if st.spindle {
				return &SequenceError{Line: line, Reason: "program ends with spindle running"}
			}
			st.ended = true
		case RapidMove, LinearMove:
			if err := checkMove(c, line, env, m); err != nil {
				return err
			}
			if c.MovesXY() && !st.spindle {
				return &SequenceError{Line: line, Reason: "move with spindle stopped"}
			}
			if c.Kind == RapidMove {
				if err := checkRapid(c, line, &st, m); err != nil {
					return err
				}
			}
			if c.X != nil {
				st.x = c.X
			}
			if c.Y != nil {
				st.y = c.Y
			}
			if c.Z != nil {
				st.z = c.Z
			}
		}
	}
	return nil
}

func checkMove(c Command, line int, env geometry.Envelope, m profile.MachineProfile) error {
	if c.X != nil {
		if err := env.CheckX(printed(*c.X)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if c.Y != nil {
		if err := env.CheckY(printed(*c.Y)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if c.Z != nil && !near(*c.Z, m.SafeHeight) && !near(*c.Z, m.Depth) {
		return &DepthError{Line: line, Value: *c.Z, Safe: m.SafeHeight, Depth: m.Depth}
	}
	return nil
}

// checkRapid rejects rapid moves that plunge, or that travel in the plane
// while the tool is down.
func checkRapid(c Command, line int, st *machineState, m profile.MachineProfile) error {
	if c.Z != nil && !near(*c.Z, m.SafeHeight) {
		return &SequenceError{Line: line, Reason: "rapid move below safe height"}
	}
	down := st.z != nil && !near(*st.z, m.SafeHeight)
	if down && (changed(st.x, c.X) || changed(st.y, c.Y)) {
		return &SequenceError{Line: line, Reason: "rapid travel with tool below safe height"}
	}
	return nil
}

func changed(from, to *float64) bool {
	if to == nil {
		return false
	}
	return from == nil || !near(*from, *to)
}

// printed rounds v to the digits formatCoord writes.
func printed(v float64) float64 {
	scale := math.Pow10(Precision)
	return math.Round(v*scale) / scale
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= zTolerance
}
