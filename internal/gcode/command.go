package gcode

import (
	"strconv"
	"strings"

	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Precision is the number of fractional digits written for coordinates.
const Precision = 3

// Kind identifies a G-code instruction.
type Kind int

const (
	SetUnits Kind = iota
	SetAbsolutePositioning
	RapidMove
	LinearMove
	SpindleStart
	SpindleStop
	ToolSelect
	EndProgram
)

var kindNames = [...]string{
	SetUnits:               "SetUnits",
	SetAbsolutePositioning: "SetAbsolutePositioning",
	RapidMove:              "RapidMove",
	LinearMove:             "LinearMove",
	SpindleStart:           "SpindleStart",
	SpindleStop:            "SpindleStop",
	ToolSelect:             "ToolSelect",
	EndProgram:             "EndProgram",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Command is one machine instruction. Which fields are meaningful depends
// on Kind: Units for SetUnits; X, Y, Z for moves (nil means the axis is
// not written); Feed for LinearMove; Speed for SpindleStart; Tool for
// ToolSelect.
type Command struct {
	Kind  Kind
	Units profile.Units
	X     *float64
	Y     *float64
	Z     *float64
	Feed  *float64
	Speed int
	Tool  int

	// Comment is written after the instruction as "; comment".
	Comment string
}

func ptr(v float64) *float64 { return &v }

// Units returns a SetUnits command.
func Units(u profile.Units) Command { return Command{Kind: SetUnits, Units: u} }

// Absolute returns a SetAbsolutePositioning command.
func Absolute() Command { return Command{Kind: SetAbsolutePositioning} }

// Rapid returns a rapid move to (x, y, z).
func Rapid(x, y, z float64) Command {
	return Command{Kind: RapidMove, X: ptr(x), Y: ptr(y), Z: ptr(z)}
}

// RapidZ returns a rapid move on the Z axis only.
func RapidZ(z float64) Command { return Command{Kind: RapidMove, Z: ptr(z)} }

// Linear returns a feed move to (x, y, z).
func Linear(x, y, z, feed float64) Command {
	return Command{Kind: LinearMove, X: ptr(x), Y: ptr(y), Z: ptr(z), Feed: ptr(feed)}
}

// Spindle returns a clockwise spindle start at speed RPM.
func Spindle(speed int) Command { return Command{Kind: SpindleStart, Speed: speed} }

// Stop returns a spindle stop.
func Stop() Command { return Command{Kind: SpindleStop} }

// Tool returns a tool change to tool.
func Tool(tool int) Command { return Command{Kind: ToolSelect, Tool: tool} }

// End returns a program end.
func End() Command { return Command{Kind: EndProgram} }

// Clone returns a copy of c that shares no axis values with it.
func (c Command) Clone() Command {
	c.X = clonePtr(c.X)
	c.Y = clonePtr(c.Y)
	c.Z = clonePtr(c.Z)
	c.Feed = clonePtr(c.Feed)
	return c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(*v)
}

// IsMotion reports whether c moves the tool.
func (c Command) IsMotion() bool {
	return c.Kind == RapidMove || c.Kind == LinearMove
}

// MovesXY reports whether c moves the tool in the plane.
func (c Command) MovesXY() bool {
	return c.IsMotion() && (c.X != nil || c.Y != nil)
}

// String formats c as one line of G-code without a trailing newline.
func (c Command) String() string {
	var b strings.Builder
	switch c.Kind {
	case SetUnits:
		if c.Units == profile.Inches {
			b.WriteString("G20")
		} else {
			b.WriteString("G21")
		}
	case SetAbsolutePositioning:
		b.WriteString("G90")
	case RapidMove, LinearMove:
		if c.Kind == RapidMove {
			b.WriteString("G0")
		} else {
			b.WriteString("G1")
		}
		writeAxis(&b, 'X', c.X)
		writeAxis(&b, 'Y', c.Y)
		writeAxis(&b, 'Z', c.Z)
		if c.Kind == LinearMove && c.Feed != nil {
			b.WriteString(" F")
			b.WriteString(strconv.FormatFloat(*c.Feed, 'f', -1, 64))
		}
	case SpindleStart:
		b.WriteString("M3 S")
		b.WriteString(strconv.Itoa(c.Speed))
	case SpindleStop:
		b.WriteString("M5")
	case ToolSelect:
		b.WriteString("M6 T")
		b.WriteString(strconv.Itoa(c.Tool))
	case EndProgram:
		b.WriteString("M30")
	}
	if c.Comment != "" {
		b.WriteString(" ; ")
		b.WriteString(c.Comment)
	}
	return b.String()
}

func writeAxis(b *strings.Builder, axis byte, v *float64) {
	if v == nil {
		return
	}
	b.WriteByte(' ')
	b.WriteByte(axis)
	b.WriteString(formatCoord(*v))
}

// formatCoord writes v with Precision fractional digits, normalising -0.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', Precision, 64)
	if strings.Trim(s, "-0.") == "" {
		return strconv.FormatFloat(0, 'f', Precision, 64)
	}
	return s
}
