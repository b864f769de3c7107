// Package gcode models the G-code subset a toolpath is written in and
// provides the per-operation emitters that produce it.
//
// Emitted programs share one shape: a header (units, absolute positioning,
// retract to safe height, optional tool change, spindle on), a body of
// self-contained plunge/work/lift sequences, and a footer (spindle off,
// end of program). Coordinates are written with three fractional digits.
//
// Parse and Validate read text back and check it against a machine
// profile, so a program can be verified before it reaches a machine.
package gcode
