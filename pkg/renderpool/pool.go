package renderpool

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently executing CPU-heavy operations.
// It changes scheduling only, never outcomes: an operation either runs to
// completion once a slot is free, or the caller's context expires while
// queued and the context error is returned without running it.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	active atomic.Int64
}

// New creates a pool with the given number of slots.
// Sizes below 1 fall back to GOMAXPROCS.
func New(size int) *Pool {
	if size < 1 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Do runs fn in a pool slot, blocking while all slots are busy.
// If ctx expires before a slot frees up, fn never runs and the context
// error is returned.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	p.active.Add(1)
	defer p.active.Add(-1)

	return fn()
}

// Size returns the configured number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Active returns the number of operations currently executing.
func (p *Pool) Active() int64 {
	return p.active.Load()
}
