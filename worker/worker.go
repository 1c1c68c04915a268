// Package worker implements the single-goroutine execution loop that
// drains a queue.Queue and invokes the tasks it yields.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiranroy/workpool/internal/cpuaffinity"
	"github.com/kiranroy/workpool/queue"
)

// Worker pops tasks from a shared queue.Queue and invokes them, one at
// a time, until cancelled. Its lifecycle follows a small state
// machine guarded by a mutex, mirrored into an atomic for lock-free
// status reads:
//
//	Create  --Run()--> Running
//	Running --Cancel()--> CancelWait
//	CancelWait --loop exit--> Cancelled (closes the cancel channel)
//	CancelWait --Uncancel()--> Running (same goroutine keeps looping)
//	Cancelled --Uncancel()--> Running (spawns a fresh goroutine)
type Worker struct {
	id    int
	queue *queue.Queue
	pin   bool

	mu       sync.Mutex
	state    State
	cancelCh chan struct{} // closed exactly once per Running epoch, when state reaches Cancelled

	atomicState atomic.Int32
}

// New creates a Worker that pulls from q. If pin is true the worker's
// goroutine is locked to its own OS thread for the duration it runs,
// and that thread is best-effort pinned to CPU core id modulo the
// number of logical CPUs.
func New(id int, q *queue.Queue, pin bool) *Worker {
	w := &Worker{
		id:    id,
		queue: q,
		pin:   pin,
		state: Create,
	}
	w.atomicState.Store(int32(Create))
	return w
}

// ID returns the worker's identity, stable for its lifetime and used
// as the CPU index when pinning is enabled.
func (w *Worker) ID() int { return w.id }

// Status returns the worker's current lifecycle state without taking
// the lifecycle mutex.
func (w *Worker) Status() State {
	return State(w.atomicState.Load())
}

func (w *Worker) setState(s State) {
	w.state = s
	w.atomicState.Store(int32(s))
}

// Run transitions the worker from Create to Running and starts its
// goroutine. It returns false and does nothing if the worker is not
// currently in Create.
func (w *Worker) Run() bool {
	w.mu.Lock()
	if w.state != Create {
		w.mu.Unlock()
		return false
	}
	w.cancelCh = make(chan struct{})
	w.setState(Running)
	w.mu.Unlock()

	go w.loop()
	return true
}

// Cancel requests that the worker stop after its current task (if
// any) finishes, and wakes the queue's waiters so an idle worker
// observes the request. It returns false if the worker is not Running.
func (w *Worker) Cancel() bool {
	w.mu.Lock()
	if w.state != Running {
		w.mu.Unlock()
		return false
	}
	w.setState(CancelWait)
	w.mu.Unlock()

	w.queue.WakeupAll()
	return true
}

// Uncancel reverses a pending or completed cancellation, returning
// the worker to Running. If the worker's goroutine already exited
// (Cancelled), a fresh goroutine is spawned; if the goroutine is
// still alive and merely waiting to notice the cancel request
// (CancelWait), it resumes in place. It returns false if the worker
// is in Create or Running (there is nothing to reverse).
func (w *Worker) Uncancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case CancelWait:
		w.setState(Running)
		return true
	case Cancelled:
		w.cancelCh = make(chan struct{})
		w.setState(Running)
		go w.loop()
		return true
	default:
		return false
	}
}

// WaitForCancel blocks until the worker reaches Cancelled, or until
// timeout elapses if timeout > 0. It returns true if the worker was
// observed Cancelled.
//
// It waits on a channel closed exactly once per Running epoch rather
// than a condition variable, so there is no window in which a timeout
// firing concurrently with the wait being armed can be missed.
func (w *Worker) WaitForCancel(timeout time.Duration) bool {
	w.mu.Lock()
	if w.state == Cancelled {
		w.mu.Unlock()
		return true
	}
	ch := w.cancelCh
	w.mu.Unlock()

	if timeout <= 0 {
		<-ch
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// loop is the worker's body: pop a task, run it to completion, check
// for a latched cancel request, repeat. Once started it runs on its
// own goroutine until the worker reaches Cancelled.
func (w *Worker) loop() {
	var unpin func()
	if w.pin {
		unpin = cpuaffinity.Pin(w.id)
		defer unpin()
	}

	for {
		item, ok := w.queue.PopUntil(func() bool {
			return w.Status() == CancelWait
		})
		if ok {
			item.Invoke()
		}

		w.mu.Lock()
		if w.state == CancelWait {
			w.setState(Cancelled)
			close(w.cancelCh)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
	}
}
