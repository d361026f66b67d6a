package gcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mastercactapus/austerus/coord"
)

// ErrMalformed is wrapped by every SyntaxError caused by bad line content.
var ErrMalformed = errors.New("malformed line")

// Kind classifies a parsed line.
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindCommand
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindCommand:
		return "command"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Options control how lines are parsed.
type Options struct {
	// Strict makes malformed content an error instead of a warning.
	Strict bool

	// Tolerant also treats '(' as the start of commentary.
	Tolerant bool
}

func (o Options) isComment(c byte) bool {
	return c == ';' || c == '#' || (o.Tolerant && c == '(')
}

// SyntaxError describes a line that could not be parsed.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("col %d: %s", e.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Line is the result of parsing one program line.
type Line struct {
	Kind   Kind
	Number int
	Raw    string

	Prefix byte
	Code   uint
	Sub    uint

	Words  []Word
	Values coord.Point
	Mask   coord.AxisMask

	// Warn is set when permissive parsing discarded part of the line.
	Warn error
}

// Is returns true if l is the command prefix+code (without a sub-code).
func (l Line) Is(prefix byte, code uint) bool {
	return l.Kind == KindCommand && l.Prefix == prefix && l.Code == code && l.Sub == 0
}

func (l Line) String() string {
	switch l.Kind {
	case KindCommand:
	case KindComment:
		return strings.TrimSpace(l.Raw)
	default:
		return ""
	}
	s := string(l.Prefix) + strconv.FormatUint(uint64(l.Code), 10)
	if l.Sub != 0 {
		s += "." + strconv.FormatUint(uint64(l.Sub), 10)
	}
	for _, w := range l.Words {
		s += " " + w.String()
	}
	return s
}

// ParseLine parses a single line of program text.
//
// Only X, Y, Z and E words are collected into Values and Mask; other words are
// kept in Words. Numeric overflow is always returned as an error.
func ParseLine(s string, opts Options) (Line, error) {
	s = strings.TrimRight(s, "\r\n")
	l := Line{Raw: s}

	i := skipSpace(s, 0)
	if i == len(s) {
		l.Kind = KindBlank
		return l, nil
	}
	if opts.isComment(s[i]) {
		l.Kind = KindComment
		return l, nil
	}

	c := upper(s[i])
	if !isLetter(c) {
		return l.malformed(opts, i, "expected command letter, found "+strconv.QuoteRune(rune(s[i])))
	}
	l.Prefix = c
	i++

	j := scanDigits(s, i)
	if j == i {
		return l.malformed(opts, i, "missing code for "+string(c))
	}
	code, err := strconv.ParseUint(s[i:j], 10, 32)
	if err != nil {
		return l, &SyntaxError{Col: i + 1, Msg: "command code out of range", Err: coord.ErrOverflow}
	}
	l.Code = uint(code)
	i = j
	if i < len(s) && s[i] == '.' {
		j = scanDigits(s, i+1)
		if j > i+1 {
			sub, err := strconv.ParseUint(s[i+1:j], 10, 32)
			if err != nil {
				return l, &SyntaxError{Col: i + 2, Msg: "command sub-code out of range", Err: coord.ErrOverflow}
			}
			l.Sub = uint(sub)
		}
		i = j
	}
	l.Kind = KindCommand

	for {
		i = skipSpace(s, i)
		if i >= len(s) || opts.isComment(s[i]) {
			return l, nil
		}

		c = upper(s[i])
		if !isLetter(c) {
			return l.discard(opts, i, "unexpected "+strconv.QuoteRune(rune(s[i])))
		}
		start := skipSpace(s, i+1)
		end := scanNumber(s, start)
		if end == start {
			return l.discard(opts, i, "missing value for "+string(c))
		}

		v, err := coord.ParseFixed(s[start:end])
		if errors.Is(err, coord.ErrOverflow) {
			return l, &SyntaxError{Col: start + 1, Msg: "value for " + string(c) + " out of range", Err: err}
		}
		if err != nil {
			return l.discard(opts, start, "invalid value "+strconv.Quote(s[start:end])+" for "+string(c))
		}

		w := Word{W: c, Arg: v}
		l.Words = append(l.Words, w)
		if a := w.Axis(); a != coord.AxisNone {
			l.Values.Set(a, v)
			l.Mask |= a
		}
		i = end
	}
}

// malformed handles a line whose command could not be read at all.
func (l Line) malformed(opts Options, col int, msg string) (Line, error) {
	err := &SyntaxError{Col: col + 1, Msg: msg, Err: ErrMalformed}
	if opts.Strict {
		return l, err
	}
	l.Kind = KindMalformed
	l.Warn = err
	return l, nil
}

// discard drops the remainder of a command line from col onwards.
func (l Line) discard(opts Options, col int, msg string) (Line, error) {
	err := &SyntaxError{Col: col + 1, Msg: msg, Err: ErrMalformed}
	if opts.Strict {
		return l, err
	}
	l.Warn = err
	return l, nil
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func scanDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func scanNumber(s string, i int) int {
	start := i
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || (i == start && (c == '-' || c == '+')) {
			i++
			continue
		}
		break
	}
	return i
}

func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
