package queue

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a generic thread-safe FIFO backed by a ring-buffer deque.
type Queue[T any] struct {
	mu    sync.Mutex
	items deque.Deque[T]
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range items {
		q.items.PushBack(item)
	}
}

// Pop removes and returns the first item. Returns zero value if empty.
func (q *Queue[T]) Pop() T {
	item, _ := q.TryPop()
	return item
}

// TryPop removes and returns the first item, reporting whether there was one.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.items.PopFront(), true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Clear()
}

// GetAndEmpty returns all items in order and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]T, 0, q.items.Len())
	for q.items.Len() > 0 {
		result = append(result, q.items.PopFront())
	}
	return result
}
