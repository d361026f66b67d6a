package stats

import (
	"errors"
	"io"

	"github.com/mastercactapus/austerus/coord"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/vm"
	"go.uber.org/zap"
)

// ProgressTable holds the cumulative extrusion after each interpreted line.
//
// Totals are signed; retraction can make them decrease or go negative.
type ProgressTable struct {
	Entries []coord.Fixed
	Total   coord.Fixed

	// Lines is the number of interpreted lines, including skipped ones.
	Lines int

	// Skipped counts leading lines that ran before the machine was homed.
	Skipped int
}

type ProgressOptions struct {
	Parse  gcode.Options
	Logger *zap.Logger
}

// Progress builds the progress table for the program in r.
func Progress(r io.Reader, opts ProgressOptions) (*ProgressTable, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	t := &ProgressTable{Entries: make([]coord.Fixed, 0, 2000)}
	m := vm.NewMachine(vm.Config{AllowUnlocated: true, Logger: log})
	p := gcode.NewParser(r, opts.Parse, log)

	err := vm.Run(m, p, func(l gcode.Line) error {
		if !interpreted(l) {
			return nil
		}
		t.Lines++

		d, err := m.Delta(true)
		if errors.Is(err, vm.ErrNotLocated) {
			t.Skipped++
			return nil
		}
		if err != nil {
			return err
		}

		t.Total += d.E
		t.Entries = append(t.Entries, t.Total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if t.Lines == 0 {
		return nil, ErrNoData
	}

	log.Debug("progress table",
		zap.Int("lines", t.Lines),
		zap.Int("skipped", t.Skipped),
		zap.Stringer("total", t.Total),
	)
	return t, nil
}

// Percent maps an acknowledgement tally to percent complete.
//
// The tally indexes the table after discounting skipped lines and is clamped
// to its range. The result is not clamped to 0-100.
func (t *ProgressTable) Percent(tally int) int {
	if t.Total == 0 || len(t.Entries) == 0 {
		return 0
	}

	i := tally - t.Skipped
	if i < 0 {
		i = 0
	}
	if i >= len(t.Entries) {
		i = len(t.Entries) - 1
	}
	return int(100 * int64(t.Entries[i]) / int64(t.Total))
}
