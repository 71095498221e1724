// Package editor turns grid selections into plate and body edits. It works on a copy
// of the latest snapshot and hands changed objects back through the exchange.
package editor

import (
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/seed"
)

// Picking shrinks the selection by this much so touching plates are not picked
const selectMargin = 1.0

// Strength limits for interactive edits
const (
	MinBattery  = -5.0
	MaxBattery  = 5.0
	MinResistor = config.MinResistor
	MaxResistor = config.MaxResistor
	MinDensity  = config.MinDensity
	MaxDensity  = config.MaxDensity
)

// Editor tracks the selection and pending edits for one consumer
type Editor struct {
	GridSize         float64
	Density          int
	BatteryStrength  float64
	ResistorStrength float64

	Bodies []body.Body
	Plates []plate.Plate

	rng *rand.Rand

	hovered  r2.Vec
	start    r2.Vec
	end      r2.Vec
	active   bool
	dragging bool
	selected []int

	remove  bool
	setType plate.Type
	setting bool
}

// New creates an editor with the given defaults, clamped to the editing limits
func New(s config.Editor, rng *rand.Rand) *Editor {
	return &Editor{
		GridSize:         s.GridSize,
		Density:          min(max(s.Density, MinDensity), MaxDensity),
		BatteryStrength:  clamp(s.BatteryStrength, MinBattery, MaxBattery),
		ResistorStrength: clamp(s.ResistorStrength, MinResistor, MaxResistor),
		rng:              rng,
	}
}

// Sync replaces the working copy with the latest simulation objects
func (e *Editor) Sync(bodies []body.Body, plates []plate.Plate) {
	e.Bodies = slices.Clone(bodies)
	e.Plates = slices.Clone(plates)
	e.selected = slices.DeleteFunc(e.selected, func(i int) bool { return i >= len(e.Plates) })
}

// Objects returns the working copy for submission
func (e *Editor) Objects() exchange.Objects {
	return exchange.Objects{Bodies: e.Bodies, Plates: e.Plates}
}

// Cell snaps a world position to the lower-left corner of its grid cell
func (e *Editor) Cell(world r2.Vec) r2.Vec {
	return r2.Vec{
		X: math.Floor(world.X/e.GridSize) * e.GridSize,
		Y: math.Floor(world.Y/e.GridSize) * e.GridSize,
	}
}

// Hover moves the cursor; while dragging it also extends the selection
func (e *Editor) Hover(world r2.Vec) {
	e.hovered = e.Cell(world)
	if e.dragging {
		e.end = e.hovered
	}
}

// Hovered returns the cell under the cursor
func (e *Editor) Hovered() r2.Vec { return e.hovered }

// Press starts a new selection at world
func (e *Editor) Press(world r2.Vec) {
	e.Hover(world)
	e.dragging = true
	e.active = true
	e.start = e.hovered
	e.end = e.hovered
	e.selected = nil
}

// Release finishes the drag and picks the plates under the selection.
// A single picked battery or resistor loads its strength into the editor.
func (e *Editor) Release() {
	e.dragging = false
	if !e.active {
		return
	}

	e.selected = e.pick()
	if len(e.selected) != 1 {
		return
	}
	p := e.Plates[e.selected[0]]
	switch p.Type {
	case plate.Battery:
		e.BatteryStrength = p.Strength()
	case plate.Resistor:
		e.ResistorStrength = p.Resist
	}
}

// Cancel drops the selection
func (e *Editor) Cancel() {
	e.active = false
	e.dragging = false
	e.selected = nil
}

// Active reports whether a selection exists
func (e *Editor) Active() bool   { return e.active }
func (e *Editor) Dragging() bool { return e.dragging }

// Selected returns the indices of the picked plates
func (e *Editor) Selected() []int { return e.selected }

// Selection returns the selected area; the end cell is included
func (e *Editor) Selection() (r2.Vec, r2.Vec) {
	min := r2.Vec{X: math.Min(e.start.X, e.end.X), Y: math.Min(e.start.Y, e.end.Y)}
	max := r2.Vec{X: math.Max(e.start.X, e.end.X), Y: math.Max(e.start.Y, e.end.Y)}
	return min, r2.Add(max, r2.Vec{X: e.GridSize, Y: e.GridSize})
}

func (e *Editor) pick() []int {
	min, max := e.Selection()
	min = r2.Add(min, r2.Vec{X: selectMargin, Y: selectMargin})
	max = r2.Sub(max, r2.Vec{X: selectMargin, Y: selectMargin})

	var picked []int
	for i, p := range e.Plates {
		if p.Overlaps(min, max) {
			picked = append(picked, i)
		}
	}
	return picked
}

// RequestRemove queues removal of the selected plates and the bodies on them
func (e *Editor) RequestRemove() {
	if e.active {
		e.remove = true
		e.active = false
	}
}

// RequestType queues a retype of the selected plates, or a new plate over the
// selected area when no plate is picked
func (e *Editor) RequestType(t plate.Type) {
	e.setType = t
	e.setting = true
}

// AdjustBattery changes the battery strength by delta within its limits
func (e *Editor) AdjustBattery(delta float64) {
	e.BatteryStrength = clamp(e.BatteryStrength+delta, MinBattery, MaxBattery)
}

// AdjustResistor changes the resistor strength by delta within its limits
func (e *Editor) AdjustResistor(delta float64) {
	e.ResistorStrength = clamp(e.ResistorStrength+delta, MinResistor, MaxResistor)
}

// AdjustDensity changes the fill density by delta within its limits
func (e *Editor) AdjustDensity(delta int) {
	e.Density = min(max(e.Density+delta, MinDensity), MaxDensity)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Apply performs the queued edits on the working copy and reports whether
// anything changed. Pending requests are consumed either way.
func (e *Editor) Apply() bool {
	updated := false
	setting := e.setting
	e.setting = false

	if e.remove {
		e.removeSelected()
		e.deselect()
		updated = true
	}

	if setting {
		if len(e.selected) > 0 {
			for _, i := range e.selected {
				e.Plates[i].Apply(e.setType, e.BatteryStrength, e.ResistorStrength)
			}
		} else {
			e.addPlate(e.setType)
		}
		e.deselect()
		updated = true
	}

	if e.active {
		for _, i := range e.selected {
			p := &e.Plates[i]
			switch p.Type {
			case plate.Battery:
				old := p.EField
				p.MakeBattery(e.BatteryStrength)
				updated = updated || old != p.EField
			case plate.Resistor:
				old := p.Resist
				p.MakeResistor(e.ResistorStrength)
				updated = updated || old != p.Resist
			}
		}
	}

	return updated
}

func (e *Editor) removeSelected() {
	doomed := make([]bool, len(e.Plates))
	for _, i := range e.selected {
		doomed[i] = true
	}

	e.Bodies = slices.DeleteFunc(e.Bodies, func(b body.Body) bool {
		for i, p := range e.Plates {
			if doomed[i] && p.Contains(b.Pos) {
				return true
			}
		}
		return false
	})

	kept := e.Plates[:0]
	for i, p := range e.Plates {
		if !doomed[i] {
			kept = append(kept, p)
		}
	}
	e.Plates = kept
}

func (e *Editor) addPlate(t plate.Type) {
	min, max := e.Selection()
	p := plate.New(min, max)
	p.Apply(t, e.BatteryStrength, e.ResistorStrength)
	e.Plates = append(e.Plates, p)
	e.Bodies = append(e.Bodies, seed.FillPlate(p, e.Density, e.GridSize, e.rng)...)
}

func (e *Editor) deselect() {
	e.selected = nil
	e.remove = false
	e.active = false
}
