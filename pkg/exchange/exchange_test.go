package exchange

import (
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
)

func TestMailboxLatestWins(t *testing.T) {
	m := NewMailbox[int]()

	if _, ok := m.Take(); ok {
		t.Fatal("Expected empty mailbox")
	}

	m.Put(1)
	m.Put(2)
	m.Put(3)

	v, ok := m.Take()
	if !ok || v != 3 {
		t.Errorf("Expected latest value 3, got %v (ok=%v)", v, ok)
	}
	if _, ok := m.Take(); ok {
		t.Error("Expected mailbox to be drained after Take")
	}
}

func TestMailboxConcurrentPutNeverBlocks(t *testing.T) {
	m := NewMailbox[int]()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			m.Put(i)
		}
	}()

	last := -1
	for i := 0; i < 1000; i++ {
		if v, ok := m.Take(); ok {
			if v < last {
				t.Fatalf("Values went backwards: %d after %d", v, last)
			}
			last = v
		}
	}
	wg.Wait()

	if v, ok := m.Take(); ok && v != 9999 {
		t.Errorf("Expected final value 9999, got %d", v)
	}
}

func TestSubmitObjectsCopies(t *testing.T) {
	e := New()
	bodies := []body.Body{body.New(r2.Vec{X: 1}, 1)}
	plates := []plate.Plate{plate.New(r2.Vec{}, r2.Vec{X: 1, Y: 1})}

	e.SubmitObjects(Objects{Bodies: bodies, Plates: plates})
	bodies[0].Pos.X = 99
	plates[0].Max.X = 99

	got, ok := e.TakeObjects()
	if !ok {
		t.Fatal("Expected queued objects")
	}
	if got.Bodies[0].Pos.X != 1 || got.Plates[0].Max.X != 1 {
		t.Errorf("Expected submitted objects to be isolated from later edits, got %+v", got)
	}
}

func TestTunablesClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0, MinDt},
		{-1, MinDt},
		{1e-9, MinDt},
	}

	for _, tt := range tests {
		if got := (Tunables{Dt: tt.in}).Clamp().Dt; got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	e := New()
	e.SubmitTunables(Tunables{Dt: 0, QE: 1, QP: 2})
	got, ok := e.TakeTunables()
	if !ok || got.Dt != MinDt || got.QE != 1 || got.QP != 2 {
		t.Errorf("Expected clamped tunables, got %+v", got)
	}
}

func TestPauseFlag(t *testing.T) {
	e := New()
	if e.Paused() {
		t.Fatal("Expected running by default")
	}
	if !e.TogglePaused() || !e.Paused() {
		t.Error("Expected paused after toggle")
	}
	e.SetPaused(false)
	if e.Paused() {
		t.Error("Expected running after SetPaused(false)")
	}
}

func TestPublishLatest(t *testing.T) {
	e := New()
	e.Publish(Snapshot{Frame: 1})
	e.Publish(Snapshot{Frame: 2})

	s, ok := e.Latest()
	if !ok || s.Frame != 2 {
		t.Errorf("Expected frame 2, got %d (ok=%v)", s.Frame, ok)
	}
	if _, ok := e.Latest(); ok {
		t.Error("Expected no further snapshot")
	}
}

func TestSnapshotsChannel(t *testing.T) {
	e := New()
	e.Publish(Snapshot{Frame: 1})
	e.Publish(Snapshot{Frame: 4})

	select {
	case s := <-e.Snapshots():
		if s.Frame != 4 {
			t.Errorf("Expected frame 4, got %d", s.Frame)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a snapshot on the channel")
	}

	select {
	case s := <-e.Snapshots():
		t.Errorf("Expected no further snapshot, got frame %d", s.Frame)
	default:
	}
}

func TestSubmitRevisions(t *testing.T) {
	e := New()
	if !e.Current(Snapshot{}) {
		t.Fatal("Expected a fresh exchange to be current")
	}

	first := e.SubmitObjects(Objects{})
	second := e.SubmitObjects(Objects{})
	if second <= first {
		t.Errorf("Expected increasing revisions, got %d then %d", first, second)
	}

	got, ok := e.TakeObjects()
	if !ok || got.Revision != second {
		t.Errorf("Expected revision %d queued, got %d (ok=%v)", second, got.Revision, ok)
	}

	if e.Current(Snapshot{Revision: first}) {
		t.Error("Expected a snapshot before the last submit to be stale")
	}
	if !e.Current(Snapshot{Revision: second}) {
		t.Error("Expected a snapshot with the last submit to be current")
	}
}
