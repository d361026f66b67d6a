package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFixed(t *testing.T) {
	tests := []struct {
		in  string
		out Fixed
		err error
	}{
		{"10", 10000, nil},
		{"-3", -3000, nil},
		{"+2.5", 2500, nil},
		{"0.125", 125, nil},
		{".5", 500, nil},
		{"7.", 7000, nil},
		{"-.25", -250, nil},
		{"1.2345", 1235, nil},
		{"1.2344", 1234, nil},
		{"-0.0005", -1, nil},
		{"0.9995", 1000, nil},
		{"", 0, ErrSyntax},
		{"-", 0, ErrSyntax},
		{".", 0, ErrSyntax},
		{"1.2.3", 0, ErrSyntax},
		{"12a", 0, ErrSyntax},
		{"9223372036854775", 9223372036854775000, nil},
		{"9223372036854776", 0, ErrOverflow},
		{"99999999999999999999999", 0, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseFixed(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.out, v)
		})
	}
}

func TestFixed_String(t *testing.T) {
	assert.Equal(t, "10", Fixed(10000).String())
	assert.Equal(t, "-2.5", Fixed(-2500).String())
	assert.Equal(t, "0.005", Fixed(5).String())
	assert.Equal(t, "-0.12", Fixed(-120).String())
}

func TestFixed_Float64(t *testing.T) {
	assert.InEpsilon(t, 12.345, Fixed(12345).Float64(), 1e-9)
	assert.Equal(t, Fixed(-1500), FromFloat(-1.5))
}
