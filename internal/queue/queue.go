// Package queue provides a generic FIFO used to batch writes.
package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO. A bounded queue evicts its oldest items when
// a push would exceed the limit.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	limit  int
	notify chan struct{}
}

// New creates an unbounded queue.
func New[T any]() *Queue[T] {
	return NewBounded[T](0)
}

// NewBounded creates a queue holding at most limit items. Zero means no limit.
func NewBounded[T any](limit int) *Queue[T] {
	return &Queue[T]{
		items:  make([]T, 0),
		limit:  limit,
		notify: make(chan struct{}, 1),
	}
}

// Push appends items and returns how many old items were evicted.
func (q *Queue[T]) Push(items ...T) (evicted int) {
	if len(items) == 0 {
		return 0
	}

	q.mu.Lock()
	q.items = append(q.items, items...)
	if q.limit > 0 && len(q.items) > q.limit {
		evicted = len(q.items) - q.limit
		q.items = append(q.items[:0:0], q.items[evicted:]...)
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return evicted
}

// Pop removes and returns the first item.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Snapshot returns a copy of the queued items, oldest first.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]T(nil), q.items...)
}

// Drain returns all items and clears the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

// Notify receives a value after pushes. Several pushes may collapse into one
// signal, so readers should Drain rather than Pop once.
func (q *Queue[T]) Notify() <-chan struct{} {
	return q.notify
}
