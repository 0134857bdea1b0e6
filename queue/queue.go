// Package queue provides a blocking FIFO of sample blocks shared between
// two pipeline stages.
//
// The queue is unbounded. AwaitFill lets a consumer wait for a minimum
// fill level, but pushes never block.
package queue

import "sync"

// Queue moves blocks of samples from a single producer to a single
// consumer. Blocks are handed over as is, the queue never copies them.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	blocks [][]T
	length int
	closed bool
}

// New returns an empty open queue.
func New[T any]() *Queue[T] {
	q := Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return &q
}

// Push appends the block to the tail of the queue. Empty blocks are
// ignored. Push must not be called after Close.
func (q *Queue[T]) Push(block []T) {
	if len(block) == 0 {
		return
	}
	q.mu.Lock()
	q.blocks = append(q.blocks, block)
	q.length += len(block)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Close marks the end of the stream. Calls after the first one have no
// effect.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the number of samples currently in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// Pull removes and returns the head block. It blocks while the queue is
// empty and open. Once the queue is closed and drained it returns nil
// without blocking.
func (q *Queue[T]) Pull() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.blocks) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.blocks) == 0 {
		return nil
	}
	block := q.blocks[0]
	q.blocks[0] = nil
	q.blocks = q.blocks[1:]
	q.length -= len(block)
	return block
}

// Drained returns true if the queue is closed and has no samples left.
func (q *Queue[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.length == 0
}

// AwaitFill blocks until the queue holds at least minFill samples or it is
// closed.
func (q *Queue[T]) AwaitFill(minFill int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.length < minFill && !q.closed {
		q.cond.Wait()
	}
}
