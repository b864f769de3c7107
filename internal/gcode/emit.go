package gcode

import (
	"fmt"

	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Emitter turns board-space shapes into a toolpath for one operation.
type Emitter interface {
	Emit(shapes []geometry.Shape, m profile.MachineProfile) (*Toolpath, error)
}

// EmitterFor returns the emission strategy for op.
func EmitterFor(op profile.Operation) (Emitter, error) {
	switch op {
	case profile.Cutting:
		return cuttingEmitter{}, nil
	case profile.Milling:
		return millingEmitter{}, nil
	case profile.Drilling:
		return drillingEmitter{}, nil
	default:
		return nil, fmt.Errorf("no emitter for operation %q", op)
	}
}

// BoardOutline returns the cutting border for a board: the rectangle
// (0,0) → (0,H) → (W,H) → (W,0), closed back at the origin by the emitter.
func BoardOutline(m profile.MachineProfile) geometry.Polygon {
	return geometry.Polygon{
		{X: 0, Y: 0},
		{X: 0, Y: m.BoardHeight},
		{X: m.BoardWidth, Y: m.BoardHeight},
		{X: m.BoardWidth, Y: 0},
	}
}

// cuttingEmitter traces the board outline and ignores the shapes.
type cuttingEmitter struct{}

func (cuttingEmitter) Emit(_ []geometry.Shape, m profile.MachineProfile) (*Toolpath, error) {
	b := newProgram(m)
	b.outline(BoardOutline(m))
	return b.finish(profile.Cutting), nil
}

// millingEmitter traces every polygon at milling depth.
type millingEmitter struct{}

func (millingEmitter) Emit(shapes []geometry.Shape, m profile.MachineProfile) (*Toolpath, error) {
	polygons := make([]geometry.Polygon, 0, len(shapes))
	for _, s := range shapes {
		if s.Kind == geometry.KindPolygon && len(s.Polygon) > 0 {
			polygons = append(polygons, s.Polygon)
		}
	}
	if len(polygons) == 0 {
		return nil, &EmptyGeometryError{Operation: profile.Milling}
	}

	b := newProgram(m)
	for _, p := range polygons {
		b.outline(p)
	}
	return b.finish(profile.Milling), nil
}

// drillingEmitter plunges once at every point.
type drillingEmitter struct{}

func (drillingEmitter) Emit(shapes []geometry.Shape, m profile.MachineProfile) (*Toolpath, error) {
	points := make([]geometry.Point, 0, len(shapes))
	for _, s := range shapes {
		if s.Kind == geometry.KindPoint {
			points = append(points, s.Point)
		}
	}
	if len(points) == 0 {
		return nil, &EmptyGeometryError{Operation: profile.Drilling}
	}

	b := newProgram(m)
	for _, p := range points {
		b.plunge(p)
		b.lift(p)
	}
	return b.finish(profile.Drilling), nil
}

// program accumulates commands. Every shape is emitted as a self-contained
// rapid-in, plunge, work, rapid-out sequence, so the tool is always at safe
// height between shapes.
type program struct {
	m    profile.MachineProfile
	cmds []Command
}

// newProgram writes the header: units, absolute positioning, a Z-only
// retract to safe height, the optional tool change and spindle start.
func newProgram(m profile.MachineProfile) *program {
	b := &program{m: m}
	b.cmds = append(b.cmds,
		Units(m.Units),
		Absolute(),
		RapidZ(m.SafeHeight),
	)
	if m.Tool > 0 {
		b.cmds = append(b.cmds, Tool(m.Tool))
	}
	b.cmds = append(b.cmds, Spindle(m.SpindleSpeed))
	return b
}

// plunge moves over p at safe height and feeds down to depth.
func (b *program) plunge(p geometry.Point) {
	b.cmds = append(b.cmds,
		Rapid(p.X, p.Y, b.m.SafeHeight),
		Linear(p.X, p.Y, b.m.Depth, b.m.FeedRate),
	)
}

// lift retracts to safe height at p.
func (b *program) lift(p geometry.Point) {
	b.cmds = append(b.cmds, Rapid(p.X, p.Y, b.m.SafeHeight))
}

// outline cuts along a closed polygon, returning to its first vertex.
func (b *program) outline(p geometry.Polygon) {
	b.plunge(p[0])
	for _, v := range p[1:] {
		b.cmds = append(b.cmds, Linear(v.X, v.Y, b.m.Depth, b.m.FeedRate))
	}
	if len(p) > 1 {
		b.cmds = append(b.cmds, Linear(p[0].X, p[0].Y, b.m.Depth, b.m.FeedRate))
	}
	b.lift(p[0])
}

// finish writes the footer and freezes the program.
func (b *program) finish(op profile.Operation) *Toolpath {
	b.cmds = append(b.cmds, Stop(), End())
	return &Toolpath{op: op, commands: b.cmds}
}
