package gcode

import (
	"github.com/mastercactapus/austerus/coord"
)

// Word is a single letter/value pair following a command, such as X10.5.
type Word struct {
	W   byte
	Arg coord.Fixed
}

// Axis returns the tracked axis w moves, or AxisNone.
func (w Word) Axis() coord.AxisMask {
	return coord.AxisFor(w.W)
}

func (w Word) String() string {
	return string(w.W) + w.Arg.String()
}
