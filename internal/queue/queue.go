// Package queue holds a user-managed FIFO of video paths that overrides
// navigation: while the queue is non-empty, advancing plays its head
// before the navigation policy is consulted.
package queue

import "sync"

// Queue is a concurrency-safe FIFO of video paths.
type Queue struct {
	mu    sync.Mutex
	items []string
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Add appends paths to the back of the queue.
func (q *Queue) Add(paths ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, paths...)
}

// Advance pops and returns the head of the queue.
func (q *Queue) Advance() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[0], true
}

// Len returns the number of queued paths.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
