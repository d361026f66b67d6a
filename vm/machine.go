package vm

import (
	"errors"

	"github.com/mastercactapus/austerus/coord"
	"github.com/mastercactapus/austerus/gcode"
	"go.uber.org/zap"
)

var (
	// ErrModeUndeclared is returned for a move before G90 or G91.
	ErrModeUndeclared = errors.New("mode undeclared")

	// ErrUnlocatedMove is returned for a move before homing when
	// unlocated moves are disabled.
	ErrUnlocatedMove = errors.New("un-located moves not enabled")

	// ErrNotLocated is returned when a physical position is requested
	// before the machine has been homed.
	ErrNotLocated = errors.New("machine not located")
)

// Mode is the coordinate mode selected by G90/G91.
type Mode int

const (
	ModeUnset Mode = iota
	ModeAbsolute
	ModeRelative
)

func (m Mode) String() string {
	switch m {
	case ModeAbsolute:
		return "absolute"
	case ModeRelative:
		return "relative"
	}
	return "unset"
}

type Config struct {
	// AllowUnlocated permits G0/G1 before the first G28.
	AllowUnlocated bool

	Logger *zap.Logger
}

func DefaultConfig() Config {
	return Config{AllowUnlocated: true}
}

// Machine tracks coordinate mode and position while interpreting lines.
//
// Physical position is position - offset; it is only meaningful once the
// machine has been homed.
type Machine struct {
	cfg Config
	log *zap.Logger

	mode    Mode
	located bool
	counter uint

	pos     coord.Point
	prev    coord.Point
	offset  coord.Point
	prevOff coord.Point
}

func NewMachine(cfg Config) *Machine {
	m := &Machine{cfg: cfg, log: cfg.Logger}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

func (m *Machine) Mode() Mode          { return m.mode }
func (m *Machine) Located() bool       { return m.located }
func (m *Machine) Counter() uint       { return m.counter }
func (m *Machine) Offset() coord.Point { return m.offset }

// Step records the current state for delta queries, then applies l.
func (m *Machine) Step(l gcode.Line) error {
	m.prev = m.pos
	m.prevOff = m.offset
	m.counter++

	if l.Kind != gcode.KindCommand {
		return nil
	}
	return m.apply(l)
}

func (m *Machine) apply(l gcode.Line) error {
	if l.Prefix != 'G' || l.Sub != 0 {
		return nil
	}

	switch l.Code {
	case 0, 1:
		if !m.cfg.AllowUnlocated && !m.located {
			return ErrUnlocatedMove
		}
		switch m.mode {
		case ModeAbsolute:
			m.pos = m.pos.Copy(l.Values, l.Mask)
		case ModeRelative:
			m.pos = m.pos.AddMasked(l.Values, l.Mask)
		default:
			return ErrModeUndeclared
		}
	case 28:
		mask := l.Mask
		if mask == coord.AxisNone {
			mask = coord.AxisAll
		}
		m.pos = m.pos.Clear(mask)
		m.offset = m.offset.Clear(mask)
		m.located = true
		m.log.Debug("homed", zap.Stringer("axes", mask))
	case 90:
		m.mode = ModeAbsolute
	case 91:
		m.mode = ModeRelative
	case 92:
		// offset moves by the same amount as position so physical is unchanged
		m.offset = m.offset.AddMasked(l.Values.Sub(m.pos), l.Mask)
		m.pos = m.pos.Copy(l.Values, l.Mask)
	}

	return nil
}

// Position returns the current position, relative to home if physical.
func (m *Machine) Position(physical bool) (coord.Point, error) {
	if !physical {
		return m.pos, nil
	}
	if !m.located {
		return coord.Point{}, ErrNotLocated
	}
	return m.pos.Sub(m.offset), nil
}

// Delta returns the movement caused by the last step.
func (m *Machine) Delta(physical bool) (coord.Point, error) {
	d := m.pos.Sub(m.prev)
	if !physical {
		return d, nil
	}
	if !m.located {
		return coord.Point{}, ErrNotLocated
	}
	return d.Sub(m.offset.Sub(m.prevOff)), nil
}
