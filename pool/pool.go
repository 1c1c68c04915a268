// Package pool implements the elastic ThreadPool: a fixed queue
// shared by a resizable collection of workers, built and reconfigured
// through Builder and its presets.
package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiranroy/workpool/queue"
	"github.com/kiranroy/workpool/worker"
)

// ThreadPool owns one queue.Queue and a resizable collection of
// workers draining it. Active workers are insertion-ordered so resize
// can shrink from the front deterministically; cancelled-or-waiting
// workers are kept separately for reuse by a later grow.
type ThreadPool struct {
	cfg   config
	queue *queue.Queue

	mu        sync.Mutex
	active    []*worker.Worker
	cancelled []*worker.Worker
	nextID    int

	released atomic.Bool
}

func newThreadPool(cfg config) *ThreadPool {
	return &ThreadPool{
		cfg:   cfg,
		queue: queue.New(cfg.policy),
	}
}

// Policy returns the pool's queue ordering policy.
func (p *ThreadPool) Policy() queue.Policy { return p.cfg.policy }

// ActiveCount returns the number of currently active workers.
func (p *ThreadPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// ResizeWorkers clamps n to [min_workers, max_workers] and adjusts
// the active worker count to match, returning the clamped value that
// was actually applied.
//
// Growing reuses cancelled-or-cancel-waiting workers first, oldest
// cancelled first, calling Uncancel to bring each back into active;
// only once that pool is exhausted are new workers spawned. Shrinking
// pops workers off the front of active, moves them to the cancelled
// collection, and calls Cancel on each, then wakes every idle worker
// so a cancel request latches even with an empty queue.
func (p *ThreadPool) ResizeWorkers(n int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resizeWorkersLocked(n)
}

func (p *ThreadPool) resizeWorkersLocked(n int) (int, error) {
	if n < p.cfg.minWorkers {
		n = p.cfg.minWorkers
	}
	if n > p.cfg.maxWorkers {
		n = p.cfg.maxWorkers
	}

	current := len(p.active)
	switch {
	case n > current:
		p.growLocked(n - current)
	case n < current:
		p.shrinkLocked(current - n)
	}

	if p.cfg.removeCancelled {
		p.pruneCancelledLocked()
	}

	return n, nil
}

func (p *ThreadPool) growLocked(need int) {
	for need > 0 && len(p.cancelled) > 0 {
		w := p.cancelled[0]
		p.cancelled = p.cancelled[1:]
		w.Uncancel()
		p.active = append(p.active, w)
		need--
	}
	for ; need > 0; need-- {
		w := worker.New(p.nextID, p.queue, p.cfg.pinToCPU)
		p.nextID++
		w.Run()
		p.active = append(p.active, w)
	}
}

func (p *ThreadPool) shrinkLocked(count int) {
	if count > len(p.active) {
		count = len(p.active)
	}
	doomed := p.active[:count]
	p.active = p.active[count:]

	for _, w := range doomed {
		w.Cancel()
		p.cancelled = append(p.cancelled, w)
	}
	p.queue.WakeupAll()
}

func (p *ThreadPool) pruneCancelledLocked() {
	kept := p.cancelled[:0]
	for _, w := range p.cancelled {
		if w.Status() != worker.Cancelled {
			kept = append(kept, w)
		}
	}
	p.cancelled = kept
}

// IsReleased reports whether Release has been called on the pool. A
// Task submitted after release is never invoked — its Future resolves
// immediately with task.ErrCancelled instead of being queued.
func (p *ThreadPool) IsReleased() bool {
	return p.released.Load()
}

// Release cancels every active worker, wakes all queue waiters, and
// drains any task still sitting in the queue, cancelling each one so
// its Future resolves with task.ErrCancelled instead of being left
// unresolved forever. It does not block for the workers to finish;
// call Close, or WaitForCancel on individual workers, to observe
// completion. After Release, further submissions are cancelled rather
// than queued.
func (p *ThreadPool) Release() {
	p.released.Store(true)

	p.mu.Lock()
	for _, w := range p.active {
		w.Cancel()
		p.cancelled = append(p.cancelled, w)
	}
	p.active = nil
	p.mu.Unlock()

	p.queue.WakeupAll()

	for _, item := range p.queue.Drain() {
		item.Cancel()
	}
}

// Close releases the pool and blocks until every worker it ever
// spawned has reached Cancelled, or timeout elapses. It is meant to
// be deferred by callers that want a clean, joined shutdown. A
// timeout of zero waits indefinitely.
func (p *ThreadPool) Close(timeout time.Duration) error {
	p.Release()

	p.mu.Lock()
	workers := append([]*worker.Worker(nil), p.cancelled...)
	p.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for _, w := range workers {
		remaining := timeout
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return fmt.Errorf("pool: close timed out waiting for worker %d", w.ID())
			}
		}
		if !w.WaitForCancel(remaining) {
			return fmt.Errorf("pool: close timed out waiting for worker %d", w.ID())
		}
	}
	return nil
}

// Report is a point-in-time census of the workers the pool still
// holds in its active and cancelled collections, bucketed by
// lifecycle state. Workers pruned under RemoveCancelled are not
// counted.
type Report struct {
	Running    int
	CancelWait int
	Cancelled  int
}

// Report takes a snapshot of worker state across the active and
// cancelled collections.
func (p *ThreadPool) Report() Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	var r Report
	for _, w := range p.active {
		switch w.Status() {
		case worker.Running:
			r.Running++
		case worker.CancelWait:
			r.CancelWait++
		case worker.Cancelled:
			r.Cancelled++
		}
	}
	for _, w := range p.cancelled {
		switch w.Status() {
		case worker.Running:
			r.Running++
		case worker.CancelWait:
			r.CancelWait++
		case worker.Cancelled:
			r.Cancelled++
		}
	}
	return r
}

// QueueSize returns the number of tasks currently waiting to be
// popped by a worker.
func (p *ThreadPool) QueueSize() int64 {
	return p.queue.Size()
}
