// Package gate provides the process-wide worker ceiling shared by every
// pipeline run. A window acquires both its run's pool slot and this gate
// before its worker launches, so simultaneous runs never jointly exceed
// one global resource limit (e.g. total GPU containers).
//
// The gate is in-process only. Runs spread across machines would need an
// external coordination primitive instead.
package gate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate is a counting semaphore with FIFO waiters. A nil Gate and a Gate
// with limit 0 are both unbounded.
type Gate struct {
	sem *semaphore.Weighted
}

// New returns a gate admitting at most limit concurrent holders.
// A non-positive limit disables the gate.
func New(limit int) *Gate {
	if limit <= 0 {
		return &Gate{}
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if g == nil || g.sem == nil {
		return ctx.Err()
	}
	return g.sem.Acquire(ctx, 1)
}

// Release returns a slot. It must be called exactly once per successful
// Acquire, immediately when the worker exits, success or failure.
func (g *Gate) Release() {
	if g == nil || g.sem == nil {
		return
	}
	g.sem.Release(1)
}

var (
	processMu sync.Mutex
	process   *Gate
)

// Process returns the process-wide gate, creating it with limit on first
// use. The first caller's limit wins; later runs in the same process share
// the same ceiling regardless of their own configuration.
func Process(limit int) *Gate {
	processMu.Lock()
	defer processMu.Unlock()
	if process == nil {
		process = New(limit)
	}
	return process
}
