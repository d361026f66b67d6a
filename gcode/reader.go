package gcode

// Reader is a source of parsed lines.
type Reader interface {
	Read() (Line, error)
}

var _ Reader = &Parser{}
