package vm

import (
	"fmt"
	"io"

	"github.com/mastercactapus/austerus/gcode"
)

// LineError attaches the source line number to an interpretation error.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// Run steps m through every line from r, calling fn (if non-nil) after each
// step. It stops at the first parse, state or callback error.
func Run(m *Machine, r gcode.Reader, fn func(l gcode.Line) error) error {
	for {
		l, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		err = m.Step(l)
		if err != nil {
			return &LineError{Line: l.Number, Err: err}
		}
		if fn == nil {
			continue
		}
		err = fn(l)
		if err != nil {
			return err
		}
	}
}
