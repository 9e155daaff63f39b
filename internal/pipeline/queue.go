package pipeline

import "sync"

// TaskQueue is a plain FIFO queue. No deduplication, no priorities:
// tasks run in the order the derivation produced them. Dequeue on an
// empty queue reports emptiness instead of erroring so drain loops
// stay simple.
type TaskQueue struct {
	mu    sync.Mutex
	items []Task
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Enqueue appends a task.
func (q *TaskQueue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, t)
}

// Dequeue removes and returns the oldest task. The boolean is false
// when the queue is empty.
func (q *TaskQueue) Dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Task{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue has no tasks.
func (q *TaskQueue) IsEmpty() bool {
	return q.Len() == 0
}
