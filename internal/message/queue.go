package message

import "sync"

// Queue is an unbounded multi-producer single-consumer queue. Push never
// blocks the producer; Pop blocks the consumer until an item or Close
// arrives. The supervisor bus and each executor's output stream are built
// on it because a bounded channel would let a slow consumer stall a
// producer goroutine mid-forward.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	wake   chan struct{}
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{wake: make(chan struct{}, 1)}
}

// Push appends item and reports whether the queue was still open. It never
// blocks.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Pop blocks until an item is available or the queue is closed and drained.
func (q *Queue[T]) Pop() (T, bool) {
	for {
		if item, ok := q.TryPop(); ok {
			return item, true
		}
		q.mu.Lock()
		closed := q.closed
		empty := len(q.items) == 0
		q.mu.Unlock()
		if closed && empty {
			var zero T
			return zero, false
		}
		<-q.wake
	}
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
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

// Close rejects further pushes. Items already queued remain poppable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
