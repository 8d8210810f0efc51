// Package sched provides the scheduler consumed by the forwarding core:
// schedule(delay, callback) -> handle, cancel(handle), now(). It drives the
// unsatisfy and straggler timers in the fw package.
package sched

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// item is one scheduled entry, tracking its own heap index so it can be
// removed (cancelled) in O(log n) rather than only popped in priority order.
type item[V any, P constraints.Ordered] struct {
	object   V
	priority P
	index    int
}

type wrapper[V any, P constraints.Ordered] []*item[V, P]

func (pq *wrapper[V, P]) Len() int { return len(*pq) }

func (pq *wrapper[V, P]) Less(i, j int) bool {
	return (*pq)[i].priority < (*pq)[j].priority
}

func (pq *wrapper[V, P]) Swap(i, j int) {
	(*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i]
	(*pq)[i].index = i
	(*pq)[j].index = j
}

func (pq *wrapper[V, P]) Push(x any) {
	it := x.(*item[V, P])
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *wrapper[V, P]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

// queue is a minimum-priority heap keyed by P (fire time), holding values V
// (callbacks). Cancellation is idempotent: cancelling an already-fired or
// already-cancelled handle is a no-op.
type queue[V any, P constraints.Ordered] struct {
	pq wrapper[V, P]
}

func newQueue[V any, P constraints.Ordered]() queue[V, P] {
	return queue[V, P]{wrapper[V, P]{}}
}

func (q *queue[V, P]) Len() int { return q.pq.Len() }

func (q *queue[V, P]) push(value V, priority P) *item[V, P] {
	it := &item[V, P]{object: value, priority: priority}
	heap.Push(&q.pq, it)
	return it
}

func (q *queue[V, P]) peek() (*item[V, P], bool) {
	if len(q.pq) == 0 {
		return nil, false
	}
	return q.pq[0], true
}

func (q *queue[V, P]) pop() *item[V, P] {
	return heap.Pop(&q.pq).(*item[V, P])
}

// remove cancels the item if it is still present in the heap.
func (q *queue[V, P]) remove(it *item[V, P]) {
	if it.index < 0 || it.index >= len(q.pq) || q.pq[it.index] != it {
		return
	}
	heap.Remove(&q.pq, it.index)
	it.index = -1
}
