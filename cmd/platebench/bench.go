package main

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/quadtree"
	"github.com/olivierh59500/plate-field-go/pkg/simulation"
)

// StepStats describes one simulation step
type StepStats struct {
	Frame     int
	Duration  time.Duration
	Calcs     int64
	Bodies    int
	MeanField float64 // Mean |field| over all bodies
}

// Accuracy compares the tree field with the exact sum at one theta
type Accuracy struct {
	Theta    float64
	RelError float64 // RMS of |tree - exact| / |exact|
	MaxError float64
	Visits   float64 // Mean node visits per query
}

// runSteps advances sim steps times and records each step
func runSteps(sim *simulation.Simulation, steps int) []StepStats {
	stats := make([]StepStats, 0, steps)
	for i := 0; i < steps; i++ {
		start := time.Now()
		sim.Step(nil)
		stats = append(stats, StepStats{
			Frame:     sim.Frame,
			Duration:  time.Since(start),
			Calcs:     sim.Quadtree.Calcs(),
			Bodies:    len(sim.Bodies),
			MeanField: meanField(sim.Bodies),
		})
	}
	return stats
}

func meanField(bodies []body.Body) float64 {
	if len(bodies) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bodies {
		sum += r2.Norm(b.EField)
	}
	return sum / float64(len(bodies))
}

// measureAccuracy evaluates the tree at each theta against the exact field on up
// to samples randomly chosen positions
func measureAccuracy(positions []r2.Vec, thetas []float64, epsilon float64, samples int, rng *rand.Rand) []Accuracy {
	if len(positions) == 0 {
		return nil
	}

	probes := positions
	if samples > 0 && samples < len(positions) {
		probes = make([]r2.Vec, samples)
		for i, j := range rng.Perm(len(positions))[:samples] {
			probes[i] = positions[j]
		}
	}

	ref := quadtree.NewReference(epsilon)
	ref.Reset(positions)
	exact := make([]r2.Vec, len(probes))
	for i, p := range probes {
		exact[i] = ref.EField(p)
	}

	results := make([]Accuracy, 0, len(thetas))
	for _, theta := range thetas {
		tree := quadtree.New(theta, epsilon)
		tree.Clear(quadtree.Containing(positions))
		for _, p := range positions {
			tree.Insert(p, 1.0)
		}
		tree.Propagate()

		acc := Accuracy{Theta: theta}
		sumSq, counted := 0.0, 0
		for i, p := range probes {
			want := r2.Norm(exact[i])
			if want == 0 {
				continue
			}
			rel := r2.Norm(r2.Sub(tree.EField(p), exact[i])) / want
			sumSq += rel * rel
			acc.MaxError = math.Max(acc.MaxError, rel)
			counted++
		}
		if counted > 0 {
			acc.RelError = math.Sqrt(sumSq / float64(counted))
		}
		acc.Visits = float64(tree.Calcs()) / float64(len(probes))
		results = append(results, acc)
	}
	return results
}

// series extracts one column of the step stats for charting
func series(stats []StepStats, fn func(StepStats) float64) []float64 {
	out := make([]float64, len(stats))
	for i, s := range stats {
		out[i] = fn(s)
	}
	return out
}
