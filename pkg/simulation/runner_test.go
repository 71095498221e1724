package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
)

func TestTickPublishes(t *testing.T) {
	sim := newTestSim(-1, 1, 1)
	sim.Bodies = []body.Body{body.New(r2.Vec{X: 5}, 1), body.New(r2.Vec{X: -5}, 1)}
	ex := exchange.New()
	r := NewRunner(sim, ex, 0)

	r.Tick()

	snap, ok := ex.Latest()
	if !ok {
		t.Fatal("Expected a snapshot after Tick")
	}
	if snap.Frame != 1 || len(snap.Bodies) != 2 {
		t.Errorf("Unexpected snapshot frame %d with %d bodies", snap.Frame, len(snap.Bodies))
	}
}

func TestTickWhilePausedIngestsOnly(t *testing.T) {
	sim := newTestSim(-1, 1, 1)
	ex := exchange.New()
	r := NewRunner(sim, ex, time.Millisecond)

	ex.SetPaused(true)
	ex.SubmitObjects(exchange.Objects{
		Bodies: []body.Body{body.New(r2.Vec{X: 5}, 1), body.New(r2.Vec{X: -5}, 1)},
	})

	r.Tick()

	snap, ok := ex.Latest()
	if !ok {
		t.Fatal("Expected a snapshot while paused")
	}
	if snap.Frame != 0 {
		t.Errorf("Expected no step while paused, got frame %d", snap.Frame)
	}
	if len(snap.Bodies) != 2 || snap.Bodies[0].Pos != (r2.Vec{X: 5}) {
		t.Errorf("Expected edits visible and unmoved, got %+v", snap.Bodies)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	sim := newTestSim(-1, 1, 1)
	sim.Bodies = []body.Body{body.New(r2.Vec{X: 1}, 1)}
	ex := exchange.New()
	r := NewRunner(sim, ex, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if _, ok := ex.Latest(); !ok {
		t.Error("Expected at least one published snapshot")
	}
}

func TestSnapshotCarriesRevision(t *testing.T) {
	sim := newTestSim(-1, 1, 1)
	ex := exchange.New()
	r := NewRunner(sim, ex, time.Millisecond)

	ex.SetPaused(true)
	rev := ex.SubmitObjects(exchange.Objects{Bodies: []body.Body{body.New(r2.Vec{X: 1}, 1)}})
	r.Tick()

	snap, ok := ex.Latest()
	if !ok || snap.Revision != rev {
		t.Fatalf("Expected revision %d, got %d (ok=%v)", rev, snap.Revision, ok)
	}
	if !ex.Current(snap) {
		t.Error("Expected the snapshot to include the last edit")
	}

	ex.SubmitObjects(exchange.Objects{})
	if ex.Current(snap) {
		t.Error("Expected the snapshot to be stale after another submit")
	}
}

func TestGoReportsOnlyUnexpectedErrors(t *testing.T) {
	sim := newTestSim(-1, 1, 1)
	r := NewRunner(sim, exchange.New(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Go(ctx, func(err error) { t.Errorf("Expected cancellation to be silent, got %v", err) })

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	var got error
	r.Go(ctx, func(err error) { got = err })
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error to be reported, got %v", got)
	}
}
