package plate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Type is the closed set of plate behaviours
type Type uint8

const (
	Normal Type = iota
	Battery
	Resistor
)

// String returns the display name of the type
func (t Type) String() string {
	switch t {
	case Normal:
		return "Normal"
	case Battery:
		return "Battery"
	case Resistor:
		return "Resistor"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType parses a type name as written by String
func ParseType(s string) (Type, error) {
	switch s {
	case "Normal", "normal", "":
		return Normal, nil
	case "Battery", "battery":
		return Battery, nil
	case "Resistor", "resistor":
		return Resistor, nil
	}
	return Normal, fmt.Errorf("unknown plate type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Plate is an axis-aligned charged rectangle. Min must be strictly below Max on both axes.
type Plate struct {
	Min    r2.Vec
	Max    r2.Vec
	EField r2.Vec // Battery contribution, zero unless Type == Battery
	Resist float64
	Type   Type
}

// New creates a normal plate spanning min..max
func New(min, max r2.Vec) Plate {
	return Plate{
		Min:    min,
		Max:    max,
		Resist: 1.0,
		Type:   Normal,
	}
}

// Equal compares bounds only
func (p Plate) Equal(o Plate) bool {
	return p.Min == o.Min && p.Max == o.Max
}

// InPlate reports whether pos is strictly inside the plate
func (p Plate) InPlate(pos r2.Vec) bool {
	return pos.X > p.Min.X && pos.X < p.Max.X && pos.Y > p.Min.Y && pos.Y < p.Max.Y
}

// Contains reports whether pos is inside the plate or on its edge
func (p Plate) Contains(pos r2.Vec) bool {
	return pos.X >= p.Min.X && pos.X <= p.Max.X && pos.Y >= p.Min.Y && pos.Y <= p.Max.Y
}

// Overlaps reports whether the plate intersects the open rectangle min..max
func (p Plate) Overlaps(min, max r2.Vec) bool {
	return p.Min.X < max.X && p.Max.X > min.X && p.Min.Y < max.Y && p.Max.Y > min.Y
}

// Center returns the midpoint of the plate
func (p Plate) Center() r2.Vec {
	return r2.Scale(0.5, r2.Add(p.Min, p.Max))
}

// Size returns the width and height as a vector
func (p Plate) Size() r2.Vec {
	return r2.Sub(p.Max, p.Min)
}

// EFieldAt returns the field of the uniformly charged rectangle at pos.
// Degenerate queries (on an edge line or corner) yield the zero vector.
func (p Plate) EFieldAt(pos r2.Vec) r2.Vec {
	a := p.Max.Y - pos.Y
	b := p.Min.Y - pos.Y
	c := p.Min.X - pos.X
	d := p.Max.X - pos.X

	xac := edgeIntegral(a, c)
	xad := edgeIntegral(a, d)
	xbc := edgeIntegral(b, c)
	xbd := edgeIntegral(b, d)

	yca := edgeIntegral(c, a)
	ycb := edgeIntegral(c, b)
	yda := edgeIntegral(d, a)
	ydb := edgeIntegral(d, b)

	xa := xad - xac
	xb := xbd - xbc
	yc := ycb - yca
	yd := ydb - yda

	e := r2.Vec{X: (xb - xa) / 2, Y: (yd - yc) / 2}
	if !finite(e.X) || !finite(e.Y) {
		return r2.Vec{}
	}
	return r2.Scale(-1, e)
}

// edgeIntegral is the antiderivative of the 2-D kernel along one edge,
// u being the offset along the integrated axis and v the offset across it.
func edgeIntegral(u, v float64) float64 {
	return 0.5*u*math.Log(u*u+v*v) + v*math.Atan(u/v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// BatteryAt returns the battery contribution at pos, tapering linearly per axis
// from full strength at the centre to zero at the edges.
func (p Plate) BatteryAt(pos r2.Vec) r2.Vec {
	half := r2.Scale(0.5, p.Size())
	center := p.Center()

	strengthX := 1 - math.Abs(pos.X-center.X)/half.X
	strengthY := 1 - math.Abs(pos.Y-center.Y)/half.Y

	return r2.Vec{X: p.EField.X * strengthX, Y: p.EField.Y * strengthY}
}

// Strength returns the signed battery magnitude along its axis
func (p Plate) Strength() float64 {
	if p.EField.X == 0 {
		return p.EField.Y
	}
	return p.EField.X
}

// MakeNormal turns the plate into a passive plate
func (p *Plate) MakeNormal() {
	p.Type = Normal
	p.Resist = 1.0
	p.EField = r2.Vec{}
}

// MakeBattery aligns a field of the given strength with the longer side; square plates get the y axis
func (p *Plate) MakeBattery(strength float64) {
	p.Type = Battery
	p.Resist = 1.0

	size := p.Size()
	if size.X > size.Y {
		p.EField = r2.Vec{X: strength}
	} else {
		p.EField = r2.Vec{Y: strength}
	}
}

// MakeResistor sets the drag factor, leaving any field untouched
func (p *Plate) MakeResistor(resist float64) {
	p.Type = Resistor
	p.Resist = resist
}

// Apply switches the plate to t using the given battery strength or resistance
func (p *Plate) Apply(t Type, battery, resist float64) {
	switch t {
	case Normal:
		p.MakeNormal()
	case Battery:
		p.MakeBattery(battery)
	case Resistor:
		p.MakeResistor(resist)
	}
}
