package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/olivierh59500/plate-field-go/pkg/exchange"
)

// DefaultTickInterval matches a 60 Hz consumer
const DefaultTickInterval = 16 * time.Millisecond

// Runner steps a simulation at a fixed cadence and publishes after every tick
type Runner struct {
	sim      *Simulation
	ex       *exchange.Exchange
	interval time.Duration
}

// NewRunner creates a runner; a non-positive interval selects DefaultTickInterval
func NewRunner(sim *Simulation, ex *exchange.Exchange, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Runner{sim: sim, ex: ex, interval: interval}
}

// Tick performs one loop iteration: edits are always ingested, physics only when not paused
func (r *Runner) Tick() {
	r.sim.Ingest(r.ex)
	if !r.ex.Paused() {
		r.sim.Advance()
	}
	r.ex.Publish(r.sim.Snapshot())
}

// Run ticks until ctx is done
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.ex.Publish(r.sim.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Go runs r until ctx is cancelled and passes any other stop reason to onErr
func (r *Runner) Go(ctx context.Context, onErr func(error)) {
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		onErr(err)
	}
}
