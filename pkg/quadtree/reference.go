package quadtree

import (
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

type pointCharge struct {
	pos    r2.Vec
	charge float64
}

func (p pointCharge) Coord2() r2.Vec { return p.pos }
func (p pointCharge) Mass() float64  { return p.charge }

// Reference computes the exact all-pairs field with the same softened kernel as Quadtree.
// It is quadratic and exists to measure the approximation error.
type Reference struct {
	eSq   float64
	plane barneshut.Plane
}

// NewReference creates an exact solver with softening epsilon
func NewReference(epsilon float64) *Reference {
	return &Reference{eSq: epsilon * epsilon}
}

// Reset replaces the source set with unit charges at positions
func (r *Reference) Reset(positions []r2.Vec) {
	particles := make([]barneshut.Particle2, len(positions))
	for i, p := range positions {
		particles[i] = pointCharge{pos: p, charge: 1}
	}
	r.plane.Particles = particles
}

// EField returns the exact field at pos
func (r *Reference) EField(pos r2.Vec) r2.Vec {
	// theta 0 on a plane that was never Reset walks every particle
	return r.plane.ForceOn(pointCharge{pos: pos}, 0, r.kernel)
}

// kernel receives v pointing from the probe to the source
func (r *Reference) kernel(_, _ barneshut.Particle2, _, charge float64, v r2.Vec) r2.Vec {
	denom := r2.Norm2(v) + r.eSq
	if denom == 0 {
		return r2.Vec{}
	}
	return r2.Scale(-charge/denom, v)
}
