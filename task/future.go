package task

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is delivered through a Future when the Task backing it
// was dropped before it could be invoked, for example because the pool
// holding it was released.
var ErrCancelled = errors.New("task: cancelled before invocation")

// Outcome is the value/failure pair a Future resolves with.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Future is the single-producer/single-consumer completion handle for
// a Task[R]. It resolves exactly once; every accessor is safe to call
// any number of times, from any number of goroutines, before or after
// resolution.
type Future[R any] struct {
	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	cached Outcome[R]
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{
		done: make(chan struct{}),
	}
}

// resolve delivers the outcome. Only the first call has any effect;
// a Task invokes this at most once by construction, but resolve is
// defensive regardless.
func (f *Future[R]) resolve(o Outcome[R]) {
	f.once.Do(func() {
		f.mu.Lock()
		f.cached = o
		f.mu.Unlock()
		close(f.done)
	})
}

// Get blocks until the Future resolves and returns its outcome.
// Repeated calls return the same cached result without blocking.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached.Value, f.cached.Err
}

// GetContext blocks until the Future resolves or ctx is done,
// whichever happens first. If ctx is done first, it returns the zero
// value and ctx.Err().
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.cached.Value, f.cached.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// TryGet returns the outcome without blocking. ready is false if the
// Future has not resolved yet, in which case value and err are zero.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.cached.Value, f.cached.Err, true
	default:
		var zero R
		return zero, nil, false
	}
}

// Done returns a channel that is closed once the Future resolves,
// suitable for use in a select alongside other events.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the Future has already resolved.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
