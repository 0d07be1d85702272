package queue

import "sync"

// Queue is a FIFO container safe for concurrent use.
// Items are stored by value; pointer items keep pointing at the same data.
// The zero value is an empty queue ready to use.
type Queue[T any] struct {
	mu    sync.RWMutex
	items []T
}

// New creates a queue holding a copy of items, head first
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{}
	if len(items) > 0 {
		q.items = append(make([]T, 0, len(items)), items...)
	}
	return q
}

// Enqueue adds an item at the tail
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Dequeue removes and returns the head item (false if empty)
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	head := q.items[0]
	q.items[0] = zero // drop reference held by the backing array
	q.items = q.items[1:]
	return head, true
}

// Peek returns the head item without removing it (false if empty)
func (q *Queue[T]) Peek() (T, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// At returns the item at index i (false if out of range)
func (q *Queue[T]) At(i int) (T, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if i < 0 || i >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[i], true
}

// RemoveAt deletes the item at index i, shifting later items down by one
func (q *Queue[T]) RemoveAt(i int) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if i < 0 || i >= len(q.items) {
		return zero, false
	}
	removed := q.items[i]

	// Fresh slice so snapshots handed out earlier never see the shift
	next := make([]T, 0, len(q.items)-1)
	next = append(next, q.items[:i]...)
	next = append(next, q.items[i+1:]...)
	q.items = next
	return removed, true
}

// Clear empties the queue
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Clone returns an independent queue with the same items in the same order
func (q *Queue[T]) Clone() *Queue[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return New(q.items...)
}

// AsArray returns an ordered snapshot of the current contents
func (q *Queue[T]) AsArray() []T {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
