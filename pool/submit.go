package pool

import "github.com/kiranroy/workpool/task"

// Submit obtains t's completion handle and pushes t onto p's queue,
// returning the handle. If p has already been released, t is
// cancelled instead of queued, so its Future resolves immediately
// with task.ErrCancelled rather than waiting forever for a worker
// that will never come.
//
// Submit is a free function rather than a method because Go does not
// let a method introduce type parameters of its own beyond its
// receiver's; ThreadPool itself is intentionally non-generic so a
// single pool can carry tasks of many different result types side by
// side.
func Submit[R any](p *ThreadPool, t *task.Task[R]) *task.Future[R] {
	future := t.Future()
	if p.IsReleased() {
		t.Cancel()
		return future
	}
	p.queue.Push(t)
	return future
}

// Emplace constructs a Task from fn and priority, submits it to p,
// and returns its completion handle.
func Emplace[R any](p *ThreadPool, priority int8, fn func() (R, error)) *task.Future[R] {
	t := task.New(fn).WithPriority(priority)
	return Submit(p, t)
}
