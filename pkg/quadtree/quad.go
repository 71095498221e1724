package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Quad is an axis-aligned square given by its centre and side length
type Quad struct {
	Center r2.Vec
	Size   float64
}

// Containing returns the square centred on the bounding box of points, sized by its longer side.
// points must not be empty.
func Containing(points []r2.Vec) Quad {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return Quad{
		Center: r2.Vec{X: (minX + maxX) * 0.5, Y: (minY + maxY) * 0.5},
		Size:   math.Max(maxX-minX, maxY-minY),
	}
}

// FindQuadrant returns 0..3 for p: bit 0 set right of centre, bit 1 set above. Ties go low.
func (q Quad) FindQuadrant(p r2.Vec) int {
	quadrant := 0
	if p.X > q.Center.X {
		quadrant |= 1
	}
	if p.Y > q.Center.Y {
		quadrant |= 2
	}
	return quadrant
}

// IntoQuadrant returns the child square for quadrant i
func (q Quad) IntoQuadrant(i int) Quad {
	q.Size *= 0.5
	q.Center.X += (float64(i&1) - 0.5) * q.Size
	q.Center.Y += (float64(i>>1) - 0.5) * q.Size
	return q
}

// Subdivide returns the four children in quadrant order
func (q Quad) Subdivide() [4]Quad {
	return [4]Quad{q.IntoQuadrant(0), q.IntoQuadrant(1), q.IntoQuadrant(2), q.IntoQuadrant(3)}
}

// Min returns the lower-left corner
func (q Quad) Min() r2.Vec {
	return r2.Sub(q.Center, r2.Vec{X: q.Size * 0.5, Y: q.Size * 0.5})
}

// Max returns the upper-right corner
func (q Quad) Max() r2.Vec {
	return r2.Add(q.Center, r2.Vec{X: q.Size * 0.5, Y: q.Size * 0.5})
}
