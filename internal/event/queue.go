package event

import (
	"context"
	"sync"
)

// Scheduler defers work onto the cooperative task queue. The scheduled
// function never runs on the caller's stack.
type Scheduler interface {
	Schedule(fn func())
}

// Queue is a FIFO of tasks executed one at a time by whoever drives it,
// either Run on a dedicated goroutine or Drain in tests.
// Schedule is safe to call from any goroutine.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

// NewQueue creates an empty task queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Schedule appends fn to the queue.
func (q *Queue) Schedule(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of tasks waiting to run.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunOne executes the oldest pending task. Returns false if the queue was empty.
func (q *Queue) RunOne() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	fn()
	return true
}

// Drain runs tasks until the queue is empty, including tasks scheduled by
// the tasks it runs. Returns how many tasks ran.
func (q *Queue) Drain() int {
	n := 0
	for q.RunOne() {
		n++
	}
	return n
}

// Run executes tasks as they arrive until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// Call schedules fn and blocks until it has run on the queue or ctx ends.
// Used by goroutines outside the queue that need a value computed on it.
func (q *Queue) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	q.Schedule(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
