package gcode

import (
	"bufio"
	"io"
	"strings"

	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Toolpath is the ordered command sequence for one job. It is immutable:
// the command slice is never exposed, so a Toolpath may be shared freely.
type Toolpath struct {
	op       profile.Operation
	commands []Command
}

// NewToolpath copies commands into a new Toolpath.
func NewToolpath(op profile.Operation, commands []Command) *Toolpath {
	return &Toolpath{op: op, commands: cloneAll(commands)}
}

// Operation returns the job the toolpath was emitted for.
func (t *Toolpath) Operation() profile.Operation { return t.op }

// Len returns the number of commands.
func (t *Toolpath) Len() int { return len(t.commands) }

// Commands returns a deep copy of the command sequence.
func (t *Toolpath) Commands() []Command {
	return cloneAll(t.commands)
}

func cloneAll(cmds []Command) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[i] = c.Clone()
	}
	return out
}

// WriteTo writes the toolpath as newline-terminated G-code lines.
func (t *Toolpath) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, c := range t.commands {
		m, err := bw.WriteString(c.String() + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// String returns the toolpath as G-code text.
func (t *Toolpath) String() string {
	var b strings.Builder
	_, _ = t.WriteTo(&b)
	return b.String()
}
