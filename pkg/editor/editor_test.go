package editor

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
)

func newTestEditor() *Editor {
	return New(config.Default().Editor, rand.New(rand.NewSource(1)))
}

func drag(e *Editor, from, to r2.Vec) {
	e.Press(from)
	e.Hover(to)
	e.Release()
}

func TestCellSnapsDown(t *testing.T) {
	e := newTestEditor()
	tests := []struct {
		in, want r2.Vec
	}{
		{r2.Vec{X: 3, Y: 7}, r2.Vec{}},
		{r2.Vec{X: 10, Y: 19.9}, r2.Vec{X: 10, Y: 10}},
		{r2.Vec{X: -0.5, Y: -10}, r2.Vec{X: -10, Y: -10}},
	}
	for _, tt := range tests {
		if got := e.Cell(tt.in); got != tt.want {
			t.Errorf("Cell(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestSelectionIncludesEndCell(t *testing.T) {
	e := newTestEditor()
	e.Press(r2.Vec{X: 25, Y: 5})
	e.Hover(r2.Vec{X: 1, Y: 15})

	min, max := e.Selection()
	if min != (r2.Vec{X: 0, Y: 0}) || max != (r2.Vec{X: 30, Y: 20}) {
		t.Errorf("Expected 0,0..30,20, got %v..%v", min, max)
	}
	if !e.Active() || !e.Dragging() {
		t.Error("Expected an active drag")
	}
}

func TestCreatePlateFillsBodies(t *testing.T) {
	e := newTestEditor()
	drag(e, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 21, Y: 11})

	if len(e.Selected()) != 0 {
		t.Fatalf("Expected no plates picked, got %v", e.Selected())
	}

	e.RequestType(plate.Battery)
	if !e.Apply() {
		t.Fatal("Expected Apply to report a change")
	}

	if len(e.Plates) != 1 {
		t.Fatalf("Expected one plate, got %d", len(e.Plates))
	}
	p := e.Plates[0]
	if p.Min != (r2.Vec{}) || p.Max != (r2.Vec{X: 30, Y: 20}) || p.Type != plate.Battery {
		t.Errorf("Unexpected plate %+v", p)
	}
	if p.EField != (r2.Vec{X: e.BatteryStrength}) {
		t.Errorf("Expected battery along x, got %v", p.EField)
	}
	// 6 cells at the default density of 4
	if len(e.Bodies) != 24 {
		t.Errorf("Expected 24 bodies, got %d", len(e.Bodies))
	}
	if e.Active() {
		t.Error("Expected the selection to clear after creating")
	}
	if e.Apply() {
		t.Error("Expected a second Apply to do nothing")
	}
}

func TestRetypeSelectedPlate(t *testing.T) {
	e := newTestEditor()
	e.Sync(nil, []plate.Plate{
		plate.New(r2.Vec{}, r2.Vec{X: 20, Y: 20}),
		plate.New(r2.Vec{X: 50}, r2.Vec{X: 70, Y: 20}),
	})
	drag(e, r2.Vec{X: 5, Y: 5}, r2.Vec{X: 5, Y: 5})

	if got := e.Selected(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("Expected plate 0 picked, got %v", got)
	}

	e.RequestType(plate.Resistor)
	if !e.Apply() {
		t.Fatal("Expected Apply to report a change")
	}
	if e.Plates[0].Type != plate.Resistor || e.Plates[0].Resist != e.ResistorStrength {
		t.Errorf("Expected resistor, got %+v", e.Plates[0])
	}
	if e.Plates[1].Type != plate.Normal {
		t.Errorf("Expected other plate untouched, got %v", e.Plates[1].Type)
	}
	if len(e.Bodies) != 0 {
		t.Errorf("Expected no bodies added on retype, got %d", len(e.Bodies))
	}
}

func TestSelectionMarginSkipsTouchingPlates(t *testing.T) {
	e := newTestEditor()
	// Selection cell 20..30 only touches the first plate's edge
	e.Sync(nil, []plate.Plate{plate.New(r2.Vec{}, r2.Vec{X: 20, Y: 10})})
	drag(e, r2.Vec{X: 25, Y: 5}, r2.Vec{X: 25, Y: 5})

	if len(e.Selected()) != 0 {
		t.Errorf("Expected no plate picked, got %v", e.Selected())
	}
}

func TestRemoveDeletesPlateAndBodies(t *testing.T) {
	e := newTestEditor()
	e.Sync(
		[]body.Body{
			body.New(r2.Vec{X: 5, Y: 5}, 1),
			body.New(r2.Vec{X: 10, Y: 0}, 1),
			body.New(r2.Vec{X: 40, Y: 5}, 1),
		},
		[]plate.Plate{
			plate.New(r2.Vec{}, r2.Vec{X: 10, Y: 10}),
			plate.New(r2.Vec{X: 30}, r2.Vec{X: 50, Y: 10}),
		},
	)
	drag(e, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1})
	e.RequestRemove()

	if !e.Apply() {
		t.Fatal("Expected Apply to report a change")
	}
	if len(e.Plates) != 1 || e.Plates[0].Min.X != 30 {
		t.Errorf("Expected only the second plate left, got %+v", e.Plates)
	}
	if len(e.Bodies) != 1 || e.Bodies[0].Pos.X != 40 {
		t.Errorf("Expected edge and inner bodies removed, got %+v", e.Bodies)
	}
}

func TestRemoveWithoutSelectionIsIgnored(t *testing.T) {
	e := newTestEditor()
	e.Sync(nil, []plate.Plate{plate.New(r2.Vec{}, r2.Vec{X: 10, Y: 10})})
	e.RequestRemove()

	if e.Apply() || len(e.Plates) != 1 {
		t.Error("Expected nothing removed without a selection")
	}
}

func TestReleaseLoadsStrength(t *testing.T) {
	e := newTestEditor()
	battery := plate.New(r2.Vec{}, r2.Vec{X: 10, Y: 20})
	battery.MakeBattery(-3)
	resistor := plate.New(r2.Vec{X: 100}, r2.Vec{X: 110, Y: 10})
	resistor.MakeResistor(0.2)
	e.Sync(nil, []plate.Plate{battery, resistor})

	drag(e, r2.Vec{X: 5, Y: 5}, r2.Vec{X: 5, Y: 5})
	if e.BatteryStrength != -3 {
		t.Errorf("Expected battery strength -3 from the y-axis plate, got %v", e.BatteryStrength)
	}

	drag(e, r2.Vec{X: 105, Y: 5}, r2.Vec{X: 105, Y: 5})
	if e.ResistorStrength != 0.2 {
		t.Errorf("Expected resistor strength 0.2, got %v", e.ResistorStrength)
	}
}

func TestLiveStrengthEdit(t *testing.T) {
	e := newTestEditor()
	battery := plate.New(r2.Vec{}, r2.Vec{X: 20, Y: 10})
	battery.MakeBattery(1)
	e.Sync(nil, []plate.Plate{battery})
	drag(e, r2.Vec{X: 5, Y: 5}, r2.Vec{X: 5, Y: 5})

	if e.Apply() {
		t.Error("Expected no change before editing")
	}

	e.AdjustBattery(0.5)
	if !e.Apply() {
		t.Fatal("Expected the strength edit to apply")
	}
	if e.Plates[0].EField != (r2.Vec{X: 1.5}) {
		t.Errorf("Expected field 1.5 along x, got %v", e.Plates[0].EField)
	}
	if !e.Active() {
		t.Error("Expected the selection to stay active")
	}
}

func TestAdjustClamps(t *testing.T) {
	e := newTestEditor()
	e.AdjustBattery(100)
	e.AdjustResistor(-100)
	e.AdjustDensity(100)

	if e.BatteryStrength != MaxBattery {
		t.Errorf("Expected battery %v, got %v", MaxBattery, e.BatteryStrength)
	}
	if e.ResistorStrength != MinResistor {
		t.Errorf("Expected resistor %v, got %v", MinResistor, e.ResistorStrength)
	}
	if e.Density != MaxDensity {
		t.Errorf("Expected density %d, got %d", MaxDensity, e.Density)
	}
}

func TestNewClampsDefaults(t *testing.T) {
	e := New(config.Editor{GridSize: 10, Density: 0, BatteryStrength: 9, ResistorStrength: 0}, rand.New(rand.NewSource(1)))

	if e.ResistorStrength != MinResistor {
		t.Errorf("Expected resistor %v, got %v", MinResistor, e.ResistorStrength)
	}
	if e.Density != MinDensity {
		t.Errorf("Expected density %d, got %d", MinDensity, e.Density)
	}
	if e.BatteryStrength != MaxBattery {
		t.Errorf("Expected battery %v, got %v", MaxBattery, e.BatteryStrength)
	}

	e.Press(r2.Vec{})
	e.Release()
	e.RequestType(plate.Resistor)
	e.Apply()
	if len(e.Plates) != 1 || e.Plates[0].Resist <= 0 {
		t.Errorf("Expected a resistor with positive resistance, got %+v", e.Plates)
	}
}

func TestSyncDropsStaleSelection(t *testing.T) {
	e := newTestEditor()
	e.Sync(nil, []plate.Plate{
		plate.New(r2.Vec{}, r2.Vec{X: 10, Y: 10}),
		plate.New(r2.Vec{X: 10}, r2.Vec{X: 20, Y: 10}),
	})
	drag(e, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 11, Y: 1})
	if len(e.Selected()) != 2 {
		t.Fatalf("Expected both plates picked, got %v", e.Selected())
	}

	e.Sync(nil, []plate.Plate{plate.New(r2.Vec{}, r2.Vec{X: 10, Y: 10})})
	if got := e.Selected(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected only index 0 left, got %v", got)
	}
}

func TestObjectsReflectEdits(t *testing.T) {
	e := newTestEditor()
	drag(e, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1})
	e.RequestType(plate.Normal)
	e.Apply()

	objs := e.Objects()
	if len(objs.Plates) != 1 || len(objs.Bodies) != 4 {
		t.Errorf("Expected 1 plate and 4 bodies, got %d and %d", len(objs.Plates), len(objs.Bodies))
	}
}
