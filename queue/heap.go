package queue

import (
	"container/heap"

	"github.com/kiranroy/workpool/task"
)

// entry wraps a Runnable with the bookkeeping the priority heap needs:
// a push-order sequence number for stable tie-breaking, and the
// effective priority used for comparison (the task's own priority
// under PRIO, a fresh random value under RAND).
type entry struct {
	item     task.Runnable
	priority int
	seq      uint64
}

// priorityHeap is a max-heap over entry.priority, ties broken by the
// smaller sequence number (earliest push wins). Less is inverted
// relative to container/heap's usual min-heap example since it must
// report which entry comes out first.
type priorityHeap []*entry

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x any) {
	*h = append(*h, x.(*entry))
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityHeap)(nil)
