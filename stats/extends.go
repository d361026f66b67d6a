package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/mastercactapus/austerus/coord"
)

// Peaks is the lowest and highest value seen on one axis.
type Peaks struct{ Min, Max coord.Fixed }

// EmptyPeaks has no samples; any value widens it.
var EmptyPeaks = Peaks{Min: math.MaxInt64, Max: math.MinInt64}

func (p Peaks) Empty() bool { return p.Min > p.Max }

// Add will widen p to include v.
func (p Peaks) Add(v coord.Fixed) Peaks {
	if v < p.Min {
		p.Min = v
	}
	if v > p.Max {
		p.Max = v
	}
	return p
}

// Extends holds the per-axis bounds reached by a program.
type Extends struct{ X, Y, Z, E Peaks }

func NewExtends() Extends {
	return Extends{X: EmptyPeaks, Y: EmptyPeaks, Z: EmptyPeaks, E: EmptyPeaks}
}

// AddXYZ will widen the X, Y and Z bounds to include p.
func (e *Extends) AddXYZ(p coord.Point) {
	e.X = e.X.Add(p.X)
	e.Y = e.Y.Add(p.Y)
	e.Z = e.Z.Add(p.Z)
}

// Report writes one tab-separated "axis min max" row per axis.
func (e Extends) Report(w io.Writer, withE bool) error {
	rows := []struct {
		name string
		p    Peaks
	}{{"X", e.X}, {"Y", e.Y}, {"Z", e.Z}}
	if withE {
		rows = append(rows, struct {
			name string
			p    Peaks
		}{"E", e.E})
	}

	for _, r := range rows {
		var err error
		if r.p.Empty() {
			_, err = fmt.Fprintf(w, "%s\t-\t-\n", r.name)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%f\t%f\n", r.name, r.p.Min.Float64(), r.p.Max.Float64())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
