package core

import (
	"container/heap"
	"sync"
	"time"

	"github.com/taskforge/taskforge/errors"
	"github.com/taskforge/taskforge/job"
)

// PriorityQueue is a bounded, goroutine-safe queue ordered by
// (priority, enqueue sequence). FIFO order is preserved among jobs of equal
// priority. A re-enqueued job takes a fresh sequence number and therefore
// loses its original relative position.
type PriorityQueue struct {
	mu       sync.Mutex
	items    itemHeap
	capacity int
	seq      uint64
	closed   bool

	// notify wakes one blocked Dequeue per enqueue. Buffered so an
	// enqueue with no waiter leaves a wakeup behind.
	notify chan struct{}
}

// NewPriorityQueue creates a priority queue with the given capacity
func NewPriorityQueue(capacity int) *PriorityQueue {
	q := &PriorityQueue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
	heap.Init(&q.items)
	return q
}

// Enqueue adds a job to the queue. It returns a QueueFullError when the
// queue is at capacity and ErrQueueClosed after Close.
func (q *PriorityQueue) Enqueue(j *job.Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.ErrQueueClosed
	}
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return errors.NewQueueFullError(q.capacity)
	}

	q.seq++
	heap.Push(&q.items, &queueItem{job: j, seq: q.seq})
	q.mu.Unlock()

	q.wake()
	return nil
}

// Dequeue removes and returns the highest-priority job, blocking up to wait
// for one to arrive. It returns (nil, false) when no job became available
// within wait or the queue was closed, so callers can re-check shutdown
// state instead of blocking indefinitely.
func (q *PriorityQueue) Dequeue(wait time.Duration) (*job.Job, bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := heap.Pop(&q.items).(*queueItem)
			remaining := len(q.items)
			q.mu.Unlock()

			// Pass a pending wakeup along to the next waiter.
			if remaining > 0 {
				q.wake()
			}
			return item.job, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.notify:
		case <-deadline.C:
			return nil, false
		}
	}
}

// Len returns the current number of queued jobs
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed. Blocked and future Dequeue calls return
// immediately; further Enqueue calls fail.
func (q *PriorityQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *PriorityQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// queueItem pairs a job with its enqueue sequence for FIFO tie-breaking
type queueItem struct {
	job *job.Job
	seq uint64
}

type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority < h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(*queueItem))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
