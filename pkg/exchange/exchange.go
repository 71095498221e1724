// Package exchange carries whole-state snapshots from the simulation to its consumers
// and edited state back, without either side holding the other's buffers.
package exchange

import (
	"slices"
	"sync/atomic"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/quadtree"
)

// MinDt is the smallest accepted time step
const MinDt = 1e-3

// Tunables are the scalars a consumer may change while the simulation runs
type Tunables struct {
	Dt float64 `json:"dt"`
	QE float64 `json:"qe"` // Inter-body charge scale
	QP float64 `json:"qp"` // Plate charge scale
}

// Clamp returns t with a strictly positive time step
func (t Tunables) Clamp() Tunables {
	if !(t.Dt >= MinDt) {
		t.Dt = MinDt
	}
	return t
}

// Objects replaces the simulation's bodies and plates wholesale
type Objects struct {
	Bodies   []body.Body
	Plates   []plate.Plate
	Revision uint64 // Set by SubmitObjects
}

func (o Objects) clone() Objects {
	return Objects{
		Bodies:   slices.Clone(o.Bodies),
		Plates:   slices.Clone(o.Plates),
		Revision: o.Revision,
	}
}

// Snapshot is the state after one completed step
type Snapshot struct {
	Frame    int
	Bodies   []body.Body
	Plates   []plate.Plate
	Nodes    []quadtree.Node
	Tunables Tunables
	Calcs    int64  // Tree interactions during the step
	Revision uint64 // Last ingested Objects revision
}

// Exchange connects one simulation to its consumer
type Exchange struct {
	snapshots *Mailbox[Snapshot]
	objects   *Mailbox[Objects]
	tunables  *Mailbox[Tunables]
	paused    atomic.Bool
	submitted atomic.Uint64
}

// New creates an empty exchange
func New() *Exchange {
	return &Exchange{
		snapshots: NewMailbox[Snapshot](),
		objects:   NewMailbox[Objects](),
		tunables:  NewMailbox[Tunables](),
	}
}

// Publish hands a snapshot to the consumer. The snapshot must not be modified afterwards.
func (e *Exchange) Publish(s Snapshot) {
	e.snapshots.Put(s)
}

// Latest returns the newest unread snapshot
func (e *Exchange) Latest() (Snapshot, bool) {
	return e.snapshots.Take()
}

// Snapshots yields snapshots as they are published
func (e *Exchange) Snapshots() <-chan Snapshot {
	return e.snapshots.Ready()
}

// SubmitObjects queues replacement bodies and plates and returns their revision.
// The slices are copied.
func (e *Exchange) SubmitObjects(o Objects) uint64 {
	o.Revision = e.submitted.Add(1)
	e.objects.Put(o.clone())
	return o.Revision
}

// Current reports whether s already includes every submitted edit. Edits made
// on an older snapshot would overwrite the pending submission.
func (e *Exchange) Current(s Snapshot) bool {
	return s.Revision >= e.submitted.Load()
}

// TakeObjects returns queued replacement objects, if any
func (e *Exchange) TakeObjects() (Objects, bool) {
	return e.objects.Take()
}

// SubmitTunables queues new tunables
func (e *Exchange) SubmitTunables(t Tunables) {
	e.tunables.Put(t.Clamp())
}

// TakeTunables returns queued tunables, if any
func (e *Exchange) TakeTunables() (Tunables, bool) {
	return e.tunables.Take()
}

func (e *Exchange) Paused() bool     { return e.paused.Load() }
func (e *Exchange) SetPaused(p bool) { e.paused.Store(p) }

// TogglePaused flips the pause flag and returns the new value
func (e *Exchange) TogglePaused() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
