// Package seed builds initial body and plate layouts.
package seed

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
)

// Scene is a starting layout
type Scene struct {
	Bodies []body.Body
	Plates []plate.Plate
}

// UniformDisc spreads n bodies over an annulus whose outer radius grows with sqrt(n),
// sorted by distance from the origin
func UniformDisc(n int, rng *rand.Rand) []body.Body {
	const innerRadius = 25.0
	outerRadius := math.Sqrt(float64(n)) * 5.0

	bodies := make([]body.Body, 0, n)
	for len(bodies) < n {
		a := rng.Float64() * 2 * math.Pi
		sin, cos := math.Sincos(a)
		t := innerRadius / outerRadius
		r := rng.Float64()*(1.0-t*t) + t*t
		pos := r2.Scale(outerRadius*math.Sqrt(r), r2.Vec{X: cos, Y: sin})
		bodies = append(bodies, body.New(pos, 1.0))
	}

	slices.SortFunc(bodies, func(a, b body.Body) int {
		return cmp.Compare(r2.Norm2(a.Pos), r2.Norm2(b.Pos))
	})
	return bodies
}

// UniformRect places n bodies uniformly in min..max
func UniformRect(n int, min, max r2.Vec, rng *rand.Rand) []body.Body {
	bodies := make([]body.Body, 0, n)
	for i := 0; i < n; i++ {
		bodies = append(bodies, body.New(randomIn(min, max, rng), 1.0))
	}
	return bodies
}

// NoiseRect places n bodies in min..max with density following 2-D Perlin noise.
// A degenerate rectangle falls back to UniformRect.
func NoiseRect(n int, min, max r2.Vec, rng *rand.Rand) []body.Body {
	size := r2.Sub(max, min)
	if !(size.X > 0 && size.Y > 0) {
		return UniformRect(n, min, max, rng)
	}
	noise := perlin.NewPerlin(2, 2, 3, rng.Int63())
	scale := 4.0 / math.Max(size.X, size.Y)

	bodies := make([]body.Body, 0, n)
	for len(bodies) < n {
		pos := randomIn(min, max, rng)
		// Noise2D is roughly in [-1, 1]
		density := (noise.Noise2D(pos.X*scale, pos.Y*scale) + 1) / 2
		if rng.Float64() < density {
			bodies = append(bodies, body.New(pos, 1.0))
		}
	}
	return bodies
}

// TwoBody is a symmetric pair on the x axis
func TwoBody() []body.Body {
	return []body.Body{
		body.New(r2.Vec{X: 5, Y: 0}, 1.0),
		body.New(r2.Vec{X: -5, Y: 0}, 1.0),
	}
}

// ThreeBody is three bodies over a long normal plate
func ThreeBody() Scene {
	return Scene{
		Bodies: []body.Body{
			body.New(r2.Vec{X: 5, Y: 0}, 1.0),
			body.New(r2.Vec{X: -5, Y: 0}, 1.0),
			body.New(r2.Vec{X: 0, Y: 5}, 1.0),
		},
		Plates: []plate.Plate{plate.New(r2.Vec{X: -40, Y: -10}, r2.Vec{X: 40, Y: 10})},
	}
}

// LargePlate fills 90% of a single plate spanning min..max with n bodies
func LargePlate(n int, min, max r2.Vec, rng *rand.Rand) Scene {
	return Scene{
		Bodies: UniformRect(n, r2.Scale(0.9, min), r2.Scale(0.9, max), rng),
		Plates: []plate.Plate{plate.New(min, max)},
	}
}

// FillPlate returns density bodies per grid cell of p, kept a tenth of a cell away from its edges
func FillPlate(p plate.Plate, density int, gridSize float64, rng *rand.Rand) []body.Body {
	size := p.Size()
	area := size.X * size.Y / (gridSize * gridSize)
	count := int(area * float64(density))
	margin := gridSize * 0.1

	min := r2.Add(p.Min, r2.Vec{X: margin, Y: margin})
	max := r2.Sub(p.Max, r2.Vec{X: margin, Y: margin})
	return UniformRect(count, min, max, rng)
}

func randomIn(min, max r2.Vec, rng *rand.Rand) r2.Vec {
	return r2.Vec{
		X: min.X + (max.X-min.X)*rng.Float64(),
		Y: min.Y + (max.Y-min.Y)*rng.Float64(),
	}
}

// Builder creates a scene with n bodies over the half-extent bound
type Builder func(n int, bound float64, rng *rand.Rand) Scene

var presets = map[string]Builder{
	"empty": func(int, float64, *rand.Rand) Scene { return Scene{} },
	"disc": func(n int, _ float64, rng *rand.Rand) Scene {
		return Scene{Bodies: UniformDisc(n, rng)}
	},
	"rect": func(n int, bound float64, rng *rand.Rand) Scene {
		return Scene{Bodies: UniformRect(n, r2.Vec{X: -bound, Y: -bound}, r2.Vec{X: bound, Y: bound}, rng)}
	},
	"noise": func(n int, bound float64, rng *rand.Rand) Scene {
		return Scene{Bodies: NoiseRect(n, r2.Vec{X: -bound, Y: -bound}, r2.Vec{X: bound, Y: bound}, rng)}
	},
	"two-body": func(int, float64, *rand.Rand) Scene {
		return Scene{Bodies: TwoBody()}
	},
	"three-body": func(int, float64, *rand.Rand) Scene {
		return ThreeBody()
	},
	"large-plate": func(n int, bound float64, rng *rand.Rand) Scene {
		return LargePlate(n, r2.Vec{X: -bound, Y: -bound}, r2.Vec{X: bound, Y: bound}, rng)
	},
}

// Preset builds the named scene
func Preset(name string, n int, bound float64, rng *rand.Rand) (Scene, error) {
	build, ok := presets[name]
	if !ok {
		return Scene{}, fmt.Errorf("unknown preset %q (have %v)", name, Presets())
	}
	return build(n, bound, rng), nil
}

// Presets lists the preset names in order
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
