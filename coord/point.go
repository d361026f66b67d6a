package coord

import "fmt"

// AxisMask is a set of axes named by a command.
type AxisMask uint8

const (
	AxisX AxisMask = 1 << iota
	AxisY
	AxisZ
	AxisE

	AxisNone AxisMask = 0
	AxisAll           = AxisX | AxisY | AxisZ | AxisE
)

// Has returns true if every axis in a is part of m.
func (m AxisMask) Has(a AxisMask) bool { return m&a == a && a != 0 }

// AxisFor returns the mask bit for an axis letter, or AxisNone.
func AxisFor(letter byte) AxisMask {
	switch letter {
	case 'X':
		return AxisX
	case 'Y':
		return AxisY
	case 'Z':
		return AxisZ
	case 'E':
		return AxisE
	}
	return AxisNone
}

func (m AxisMask) String() string {
	if m == AxisNone {
		return "-"
	}
	var s []byte
	for _, c := range []byte("XYZE") {
		if m&AxisFor(c) != 0 {
			s = append(s, c)
		}
	}
	return string(s)
}

// Point is a 4-axis coordinate (or coordinate delta).
type Point struct{ X, Y, Z, E Fixed }

func (p Point) Equal(b Point) bool { return p == b }

// Get returns the value of a single axis.
func (p Point) Get(a AxisMask) Fixed {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	case AxisZ:
		return p.Z
	case AxisE:
		return p.E
	}
	return 0
}

// Set will set the value of a single axis.
func (p *Point) Set(a AxisMask, v Fixed) {
	switch a {
	case AxisX:
		p.X = v
	case AxisY:
		p.Y = v
	case AxisZ:
		p.Z = v
	case AxisE:
		p.E = v
	}
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	p.E += target.E
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	p.E -= target.E
	return p
}

// Copy returns p with the masked axes replaced by the values in src.
func (p Point) Copy(src Point, m AxisMask) Point {
	if m&AxisX != 0 {
		p.X = src.X
	}
	if m&AxisY != 0 {
		p.Y = src.Y
	}
	if m&AxisZ != 0 {
		p.Z = src.Z
	}
	if m&AxisE != 0 {
		p.E = src.E
	}
	return p
}

// AddMasked returns p with delta added on the masked axes only.
func (p Point) AddMasked(delta Point, m AxisMask) Point {
	return p.Copy(p.Add(delta), m)
}

// Clear returns p with the masked axes set to zero.
func (p Point) Clear(m AxisMask) Point {
	return p.Copy(Point{}, m)
}

func (p Point) String() string {
	return fmt.Sprintf("X%s Y%s Z%s E%s", p.X, p.Y, p.Z, p.E)
}
