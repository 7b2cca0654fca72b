package petri

import "sync"

// FIFO is a first-in-first-out queue safe for concurrent use.
type FIFO[T any] struct {
	values []T
	mu     sync.Mutex
}

func (fifo *FIFO[T]) Push(value ...T) {
	fifo.mu.Lock()
	defer fifo.mu.Unlock()
	fifo.values = append(fifo.values, value...)
}

// Pop removes the oldest value. ok is false when the queue is empty.
func (fifo *FIFO[T]) Pop() (value T, ok bool) {
	fifo.mu.Lock()
	defer fifo.mu.Unlock()
	if len(fifo.values) == 0 {
		return value, false
	}
	value = fifo.values[0]
	fifo.values = fifo.values[1:]
	return value, true
}

func (fifo *FIFO[T]) Len() int {
	fifo.mu.Lock()
	defer fifo.mu.Unlock()
	return len(fifo.values)
}

func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{
		values: make([]T, 0),
	}
}
