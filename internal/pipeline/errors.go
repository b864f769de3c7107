package pipeline

import (
	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/mapping"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// The errors a run can return, gathered so callers need only this package
// to match them with errors.As.
type (
	DecodeError           = imaging.DecodeError
	UnsupportedInputError = imaging.UnsupportedInputError
	DegenerateImageError  = mapping.DegenerateImageError
	OutOfBoundsError      = geometry.OutOfBoundsError
	EmptyGeometryError    = gcode.EmptyGeometryError
	DepthError            = gcode.DepthError
	SequenceError         = gcode.SequenceError
	ValidationError       = profile.ValidationError
)
