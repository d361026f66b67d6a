package coord

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Scale is the number of Fixed units per native length unit.
const Scale = 1000

// ErrOverflow is returned when a literal does not fit the fixed-point range.
var ErrOverflow = errors.New("numeric value out of range")

// ErrSyntax is returned for text that is not a decimal number.
var ErrSyntax = errors.New("invalid number")

// Fixed is a length (or extrusion) in thousandths of the file's native unit.
//
// Incremental moves accumulate without rounding drift.
type Fixed int64

const (
	MaxFixed Fixed = math.MaxInt64
	MinFixed Fixed = math.MinInt64
)

// FromFloat converts a float, rounding to the nearest thousandth.
func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * Scale))
}

// Float64 returns f in native units.
func (f Fixed) Float64() float64 { return float64(f) / Scale }

// ParseFixed parses decimal text such as "-12.5", ".25" or "7." into a Fixed.
//
// Digits past the third decimal place are rounded half away from zero.
func ParseFixed(s string) (Fixed, error) {
	if s == "" {
		return 0, ErrSyntax
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrSyntax
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrSyntax
	}

	var whole uint64
	if intPart != "" {
		var err error
		whole, err = strconv.ParseUint(intPart, 10, 64)
		if err != nil {
			return 0, ErrOverflow
		}
	}
	if whole > math.MaxInt64/Scale {
		return 0, ErrOverflow
	}

	var frac uint64
	for i := 0; i < 3; i++ {
		frac *= 10
		if i < len(fracPart) {
			frac += uint64(fracPart[i] - '0')
		}
	}
	if len(fracPart) > 3 && fracPart[3] >= '5' {
		frac++
	}

	v := whole*Scale + frac
	if v > math.MaxInt64 {
		return 0, ErrOverflow
	}
	if neg {
		return -Fixed(v), nil
	}
	return Fixed(v), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats f with up to three decimals and no trailing zeros.
func (f Fixed) String() string {
	u := uint64(f)
	sign := ""
	if f < 0 {
		sign = "-"
		u = uint64(-f)
	}
	s := sign + strconv.FormatUint(u/Scale, 10)
	if rem := u % Scale; rem != 0 {
		fs := strconv.FormatUint(rem+Scale, 10)[1:]
		s += "." + strings.TrimRight(fs, "0")
	}
	return s
}
