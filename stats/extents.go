package stats

import (
	"errors"
	"io"

	"github.com/mastercactapus/austerus/coord"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/vm"
	"go.uber.org/zap"
)

// ErrNoData is returned when a scan interprets no lines at all.
var ErrNoData = errors.New("read no lines")

// Mode selects which samples contribute to X/Y/Z bounds.
type Mode int

const (
	// ModeAllTravel records every position reached.
	ModeAllTravel Mode = iota

	// ModeDeposition records only moves that extrude, once printing started.
	ModeDeposition

	// ModeZWindow records only moves that stay at or below ZMin.
	ModeZWindow
)

func (m Mode) String() string {
	switch m {
	case ModeDeposition:
		return "deposition"
	case ModeZWindow:
		return "zwindow"
	}
	return "travel"
}

type Options struct {
	Mode     Mode
	Physical bool
	ZMin     coord.Fixed
	Ignore   *Region

	Parse  gcode.Options
	Logger *zap.Logger
}

// interpreted reports whether l is a line that reaches the device.
func interpreted(l gcode.Line) bool {
	return l.Kind == gcode.KindCommand || l.Kind == gcode.KindMalformed
}

// Extents computes the bounds reached by the program in r, and the number of
// interpreted lines.
func Extents(r io.Reader, opts Options) (Extends, int, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ext := NewExtends()
	m := vm.NewMachine(vm.Config{AllowUnlocated: true, Logger: log})
	p := gcode.NewParser(r, opts.Parse, log)

	var (
		lines   int
		started bool
		iglast  bool
	)
	err := vm.Run(m, p, func(l gcode.Line) error {
		if !interpreted(l) {
			return nil
		}
		lines++

		pos, err := m.Position(opts.Physical)
		if errors.Is(err, vm.ErrNotLocated) {
			return nil
		}
		if err != nil {
			return err
		}
		delta, err := m.Delta(opts.Physical)
		if err != nil {
			return err
		}

		ext.E = ext.E.Add(pos.E)

		if opts.Ignore != nil && opts.Ignore.Contains(pos) {
			log.Debug("ignore region", zap.Int("line", l.Number), zap.Stringer("pos", pos))
			iglast = true
			return nil
		}

		switch opts.Mode {
		case ModeDeposition:
			if !started && delta.E > 0 && delta.X+delta.Y > 0 {
				started = true
				log.Debug("deposition started", zap.Int("line", l.Number))
			}
			if !started || delta.E <= 0 {
				return nil
			}
		case ModeZWindow:
			if pos.Z > opts.ZMin || pos.Z-delta.Z > opts.ZMin {
				return nil
			}
		}

		ext.AddXYZ(pos)
		if !iglast {
			ext.AddXYZ(pos.Sub(delta))
		}
		iglast = false
		return nil
	})
	if err != nil {
		return ext, lines, err
	}
	if lines == 0 {
		return ext, 0, ErrNoData
	}

	return ext, lines, nil
}
