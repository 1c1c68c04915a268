// Package queue implements the thread-safe, policy-ordered task queue
// at the heart of the pool: FIFO, LIFO, priority, and randomized
// dequeue orderings behind one type and one locking discipline.
package queue

import (
	"container/heap"
	"container/list"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiranroy/workpool/task"
)

// Queue is a bounded-free, thread-safe multi-producer/multi-consumer
// container of task.Runnable values, guarded by a mutex and a
// condition variable, with a lock-free atomic size counter. Its
// internal structure is picked once at construction time by Policy:
// FIFO and LIFO share an insertion-ordered deque; PRIO and RAND share
// a priority heap.
type Queue struct {
	policy Policy

	mu   sync.Mutex
	cond *sync.Cond

	deque *list.List
	heap  priorityHeap

	seq  uint64
	size atomic.Int64
}

// New creates a Queue that dequeues according to policy.
func New(policy Policy) *Queue {
	q := &Queue{policy: policy}
	q.cond = sync.NewCond(&q.mu)
	switch policy {
	case FIFO, LIFO:
		q.deque = list.New()
	case PRIO, RAND:
		q.heap = priorityHeap{}
	}
	return q
}

// Policy returns the queue's ordering policy.
func (q *Queue) Policy() Policy { return q.policy }

// Push takes ownership of item, places it according to the queue's
// policy, increments the size counter, and wakes exactly one waiter.
func (q *Queue) Push(item task.Runnable) {
	q.mu.Lock()
	q.pushLocked(item)
	q.size.Add(1)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *Queue) pushLocked(item task.Runnable) {
	seq := q.seq
	q.seq++

	switch q.policy {
	case FIFO, LIFO:
		q.deque.PushBack(&entry{item: item, seq: seq})
	case PRIO:
		heap.Push(&q.heap, &entry{item: item, priority: int(item.Priority()), seq: seq})
	case RAND:
		heap.Push(&q.heap, &entry{item: item, priority: int(int8(rand.IntN(256) - 128)), seq: seq})
	}
}

// popLocked removes and returns the task chosen by policy. The caller
// must hold q.mu and must have already confirmed the queue is
// non-empty.
func (q *Queue) popLocked() task.Runnable {
	switch q.policy {
	case FIFO:
		front := q.deque.Front()
		q.deque.Remove(front)
		return front.Value.(*entry).item
	case LIFO:
		back := q.deque.Back()
		q.deque.Remove(back)
		return back.Value.(*entry).item
	default: // PRIO, RAND
		e := heap.Pop(&q.heap).(*entry)
		return e.item
	}
}

func (q *Queue) lenLocked() int {
	if q.deque != nil {
		return q.deque.Len()
	}
	return len(q.heap)
}

// Pop blocks until the queue is non-empty, then removes and returns
// the task chosen by policy.
func (q *Queue) Pop() task.Runnable {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 {
		q.cond.Wait()
	}
	item := q.popLocked()
	q.size.Add(-1)
	return item
}

// PopFor blocks until a task is available or timeout elapses,
// whichever comes first. ok is false on timeout.
func (q *Queue) PopFor(timeout time.Duration) (item task.Runnable, ok bool) {
	if timeout <= 0 {
		return q.tryPopLocked()
	}

	deadline := time.Now().Add(timeout)

	timer := time.AfterFunc(timeout, q.WakeupAll)
	defer timer.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 {
		if !time.Now().Before(deadline) {
			return nil, false
		}
		q.cond.Wait()
	}
	item = q.popLocked()
	q.size.Add(-1)
	return item, true
}

func (q *Queue) tryPopLocked() (task.Runnable, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenLocked() == 0 {
		return nil, false
	}
	item := q.popLocked()
	q.size.Add(-1)
	return item, true
}

// PopUntil blocks until the queue is non-empty or predicate reports
// true, whichever comes first. It is used by Worker to latch a cancel
// request even while idle: the predicate tests the worker's own
// lifecycle state, and WakeupAll is what causes a blocked PopUntil to
// re-evaluate it promptly. ok is false if predicate fired the wakeup
// (the queue stayed empty); in that case item is nil.
func (q *Queue) PopUntil(predicate func() bool) (item task.Runnable, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 && !predicate() {
		q.cond.Wait()
	}
	if q.lenLocked() == 0 {
		return nil, false
	}
	item = q.popLocked()
	q.size.Add(-1)
	return item, true
}

// Size returns a lock-free snapshot of the number of tasks currently
// queued.
func (q *Queue) Size() int64 {
	return q.size.Load()
}

// WakeupAll wakes every current waiter without altering the queue's
// contents. ThreadPool uses this during resize and release so idle
// Workers observe a cancel request without a task ever arriving.
func (q *Queue) WakeupAll() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Drain removes and returns every task currently queued, in
// policy order, leaving the queue empty. It is used when a
// ThreadPool is closed and any undispatched tasks must be resolved
// with a cancellation outcome rather than silently discarded.
func (q *Queue) Drain() []task.Runnable {
	q.mu.Lock()
	defer q.mu.Unlock()

	var drained []task.Runnable
	for q.lenLocked() > 0 {
		drained = append(drained, q.popLocked())
	}
	q.size.Store(0)
	return drained
}
