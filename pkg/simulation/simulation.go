package simulation

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/quadtree"
)

// Default tree parameters
const (
	DefaultTheta   = 0.75
	DefaultEpsilon = 1.0
)

// Bodies per parallel chunk; smaller sets run on the calling goroutine
const chunkSize = 1024

// Source supplies edits queued by a consumer
type Source interface {
	TakeObjects() (exchange.Objects, bool)
	TakeTunables() (exchange.Tunables, bool)
}

// Simulation owns the authoritative bodies and plates
type Simulation struct {
	Dt       float64
	Frame    int
	Bodies   []body.Body
	Plates   []plate.Plate
	Quadtree *quadtree.Quadtree
	QE       float64 // Inter-body charge scale
	QP       float64 // Plate charge scale
	Workers  int
	Revision uint64 // Revision of the last ingested edit

	points []r2.Vec
}

// New creates an empty simulation
func New(theta, epsilon float64, t exchange.Tunables) *Simulation {
	t = t.Clamp()
	return &Simulation{
		Dt:       t.Dt,
		QE:       t.QE,
		QP:       t.QP,
		Quadtree: quadtree.New(theta, epsilon),
		Workers:  runtime.GOMAXPROCS(0),
	}
}

// Tunables returns the current scalar settings
func (s *Simulation) Tunables() exchange.Tunables {
	return exchange.Tunables{Dt: s.Dt, QE: s.QE, QP: s.QP}
}

// SetTunables applies t, clamping the time step
func (s *Simulation) SetTunables(t exchange.Tunables) {
	t = t.Clamp()
	s.Dt, s.QE, s.QP = t.Dt, t.QE, t.QP
}

// Step runs ingest, tree rebuild, field accumulation and integration, then advances the frame.
// src may be nil.
func (s *Simulation) Step(src Source) {
	s.Ingest(src)
	s.Advance()
}

// Ingest swaps in edits queued by a consumer. It is a no-op when nothing is pending.
func (s *Simulation) Ingest(src Source) {
	if src == nil {
		return
	}
	if objects, ok := src.TakeObjects(); ok {
		s.Bodies = objects.Bodies
		s.Plates = objects.Plates
		s.Revision = objects.Revision
	}
	if t, ok := src.TakeTunables(); ok {
		s.SetTunables(t)
	}
}

// Advance runs the physics phases on the current state and counts the frame.
// An empty body set leaves the state untouched.
func (s *Simulation) Advance() {
	if len(s.Bodies) > 0 {
		s.rebuild()
		s.attract()
		s.integrate()
	} else {
		s.Quadtree.Reset()
	}
	s.Frame++
}

func (s *Simulation) rebuild() {
	s.points = s.points[:0]
	for i := range s.Bodies {
		s.points = append(s.points, s.Bodies[i].Pos)
	}

	s.Quadtree.Clear(quadtree.Containing(s.points))
	for _, p := range s.points {
		s.Quadtree.Insert(p, 1.0)
	}
	s.Quadtree.Propagate()
}

func (s *Simulation) attract() {
	s.forEach(func(i int) {
		b := &s.Bodies[i]
		b.EField = r2.Scale(s.QE, s.Quadtree.EField(b.Pos))

		for k := range s.Plates {
			p := &s.Plates[k]
			b.EField = r2.Add(b.EField, r2.Scale(s.QP, p.EFieldAt(b.Pos)))

			if p.InPlate(b.Pos) {
				b.EField = r2.Add(b.EField, p.BatteryAt(b.Pos))
			}
			if p.Contains(b.Pos) {
				b.Resist = p.Resist
			}
		}
	})
}

func (s *Simulation) integrate() {
	s.forEach(func(i int) {
		s.Bodies[i].Pos = ClipPosition(s.Bodies[i], s.Plates, s.Dt)
	})
}

// forEach runs fn for every body index, fanning out over chunks for large sets
func (s *Simulation) forEach(fn func(i int)) {
	n := len(s.Bodies)
	if n <= chunkSize || s.Workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(s.Workers)
	for start := 0; start < n; start += chunkSize {
		start := start
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ClipPosition integrates one body and keeps it from leaving a plate through a side or corner.
// A move is accepted if it lands in a plate, trying the full move, then y only, then x only.
// A body outside every plate moves freely; one inside a plate with no valid move stays put.
func ClipPosition(b body.Body, plates []plate.Plate, dt float64) r2.Vec {
	oldPos := b.Pos
	newPos := b.NewPos(dt)

	switch {
	case onPlate(newPos, plates):
		return newPos
	case onPlate(r2.Vec{X: oldPos.X, Y: newPos.Y}, plates):
		return r2.Vec{X: oldPos.X, Y: newPos.Y}
	case onPlate(r2.Vec{X: newPos.X, Y: oldPos.Y}, plates):
		return r2.Vec{X: newPos.X, Y: oldPos.Y}
	case !onPlate(oldPos, plates):
		return newPos
	default:
		return oldPos
	}
}

func onPlate(pos r2.Vec, plates []plate.Plate) bool {
	for i := range plates {
		if plates[i].InPlate(pos) {
			return true
		}
	}
	return false
}

// Snapshot copies the current state for publication
func (s *Simulation) Snapshot() exchange.Snapshot {
	return exchange.Snapshot{
		Frame:    s.Frame,
		Bodies:   slices.Clone(s.Bodies),
		Plates:   slices.Clone(s.Plates),
		Nodes:    s.Quadtree.CopyNodes(nil),
		Tunables: s.Tunables(),
		Calcs:    s.Quadtree.Calcs(),
		Revision: s.Revision,
	}
}
