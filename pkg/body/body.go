package body

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a point charge. EField is recomputed every step; Radius is only used for drawing.
type Body struct {
	Pos    r2.Vec
	EField r2.Vec
	Radius float64
	Resist float64 // Resistance in (0,1], 1 means no drag
}

// New creates a body at rest with no drag
func New(pos r2.Vec, radius float64) Body {
	return Body{
		Pos:    pos,
		Radius: radius,
		Resist: 1.0,
	}
}

// NewPos returns the unclipped position after one step of length dt
func (b Body) NewPos(dt float64) r2.Vec {
	return r2.Add(b.Pos, r2.Scale(dt*b.Resist, b.EField))
}

// Positions collects body positions, in order
func Positions(bodies []Body) []r2.Vec {
	out := make([]r2.Vec, len(bodies))
	for i := range bodies {
		out[i] = bodies[i].Pos
	}
	return out
}
