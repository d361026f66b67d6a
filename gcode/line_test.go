package gcode

import (
	"errors"
	"testing"

	"github.com/mastercactapus/austerus/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Kinds(t *testing.T) {
	tests := []struct {
		in   string
		opts Options
		kind Kind
	}{
		{"", Options{}, KindBlank},
		{"   \t\r\n", Options{}, KindBlank},
		{"; a comment", Options{}, KindComment},
		{"  # also a comment", Options{}, KindComment},
		{"(paren comment)", Options{Tolerant: true}, KindComment},
		{"G1 X1", Options{}, KindCommand},
		{"M104 S200", Options{}, KindCommand},
		{"(paren comment)", Options{}, KindMalformed},
	}
	for _, tt := range tests {
		l, err := ParseLine(tt.in, tt.opts)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.kind, l.Kind, tt.in)
	}
}

func TestParseLine_Axes(t *testing.T) {
	l, err := ParseLine("G1 X10.5 y-2 Z.3 E1.25 F1800\n", Options{Strict: true})
	require.NoError(t, err)

	assert.Equal(t, byte('G'), l.Prefix)
	assert.Equal(t, uint(1), l.Code)
	assert.Equal(t, coord.AxisAll, l.Mask)
	assert.Equal(t, coord.Point{X: 10500, Y: -2000, Z: 300, E: 1250}, l.Values)
	assert.Len(t, l.Words, 5)
	assert.Equal(t, Word{W: 'F', Arg: 1800000}, l.Words[4])
}

func TestWordAxis(t *testing.T) {
	assert.Equal(t, coord.AxisX, Word{W: 'X'}.Axis())
	assert.Equal(t, coord.AxisE, Word{W: 'E'}.Axis())
	assert.Equal(t, coord.AxisNone, Word{W: 'F'}.Axis())

	l, err := ParseLine("G1 F1200 S3", Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, coord.AxisNone, l.Mask)
	assert.Len(t, l.Words, 2)
}

func TestParseLine_Compact(t *testing.T) {
	l, err := ParseLine("G1X10Y5", Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, coord.AxisX|coord.AxisY, l.Mask)
	assert.Equal(t, coord.Point{X: 10000, Y: 5000}, l.Values)
}

func TestParseLine_TrailingComment(t *testing.T) {
	l, err := ParseLine("G1 X1 ; Y2", Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, coord.AxisX, l.Mask)

	l, err = ParseLine("G1 X1 (Y2)", Options{Strict: true, Tolerant: true})
	require.NoError(t, err)
	assert.Equal(t, coord.AxisX, l.Mask)
}

func TestParseLine_SubCode(t *testing.T) {
	l, err := ParseLine("G92.1", Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, uint(92), l.Code)
	assert.Equal(t, uint(1), l.Sub)
	assert.False(t, l.Is('G', 92))
	assert.Equal(t, "G92.1", l.String())
}

func TestParseLine_Malformed(t *testing.T) {
	_, err := ParseLine("G X10", Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Col)

	l, err := ParseLine("G X10", Options{})
	require.NoError(t, err)
	assert.Equal(t, KindMalformed, l.Kind)
	assert.ErrorIs(t, l.Warn, ErrMalformed)
}

func TestParseLine_DiscardRemainder(t *testing.T) {
	l, err := ParseLine("G1 X10 Y Z5", Options{})
	require.NoError(t, err)
	assert.Equal(t, KindCommand, l.Kind)
	assert.Equal(t, coord.AxisX, l.Mask)
	assert.Equal(t, coord.Fixed(10000), l.Values.X)
	assert.Error(t, l.Warn)

	_, err = ParseLine("G1 X10 Y Z5", Options{Strict: true})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseLine_Overflow(t *testing.T) {
	for _, opts := range []Options{{}, {Strict: true}} {
		_, err := ParseLine("G1 X99999999999999999", opts)
		assert.ErrorIs(t, err, coord.ErrOverflow)
	}
}
