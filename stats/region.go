package stats

import (
	"fmt"
	"strings"

	"github.com/mastercactapus/austerus/coord"
)

// Region is an X/Y rectangle excluded from bounds. Corner ordering is not
// normalized; a region with X1 > X2 or Y1 > Y2 contains nothing.
type Region struct{ X1, X2, Y1, Y2 coord.Fixed }

// Contains returns true if the X/Y of p lies inside r, edges included.
func (r Region) Contains(p coord.Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", r.X1, r.X2, r.Y1, r.Y2)
}

// ParseRegion parses "x1:x2:y1:y2".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("invalid region %q: expected x1:x2:y1:y2", s)
	}

	var v [4]coord.Fixed
	for i, p := range parts {
		f, err := coord.ParseFixed(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		v[i] = f
	}
	return Region{X1: v[0], X2: v[1], Y1: v[2], Y2: v[3]}, nil
}
