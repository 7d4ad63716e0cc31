package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Worker is one concurrent consumer of the priority queue
type Worker struct {
	id          string
	queue       *PriorityQueue
	store       *Store
	executor    *Executor
	dequeueWait time.Duration
	damping     time.Duration
	busy        *int32 // shared pool counter of workers executing a job

	// jobBase parents every job's context. It outlives the loop context
	// so shutdown can drain in-flight work before cancelling it.
	jobBase context.Context

	// Statistics
	processed int64
	startTime time.Time
}

// NewWorker creates a new worker
func NewWorker(
	id string,
	queue *PriorityQueue,
	store *Store,
	executor *Executor,
	dequeueWait time.Duration,
	damping time.Duration,
	busy *int32,
	jobBase context.Context,
) *Worker {
	return &Worker{
		id:          id,
		queue:       queue,
		store:       store,
		executor:    executor,
		dequeueWait: dequeueWait,
		damping:     damping,
		busy:        busy,
		jobBase:     jobBase,
		startTime:   time.Now(),
	}
}

// Work runs the worker loop until ctx is cancelled. Each iteration blocks
// on the queue for at most dequeueWait so shutdown is always observed.
func (w *Worker) Work(ctx context.Context) {
	slog.Info("Worker started", "id", w.id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Worker stopping", "id", w.id)
			return
		default:
		}

		j, ok := w.queue.Dequeue(w.dequeueWait)
		if !ok {
			continue
		}

		// Not due yet: put it back and let another pass pick it up.
		// The short damping sleep keeps a lone delayed job from
		// spinning the loop hot.
		if !j.Due(time.Now()) {
			if !w.store.IsActive(j.ID) {
				// Cancelled while queued; drop it.
				continue
			}
			if err := w.queue.Enqueue(j); err != nil {
				// The job has no queue slot to return to; leaving it
				// pending would strand it in the active table.
				w.executor.AbandonDeferred(j, err)
				continue
			}
			select {
			case <-ctx.Done():
				slog.Info("Worker stopping", "id", w.id)
				return
			case <-time.After(w.damping):
			}
			continue
		}

		atomic.AddInt32(w.busy, 1)
		w.executor.Execute(w.jobBase, j)
		atomic.AddInt32(w.busy, -1)
		atomic.AddInt64(&w.processed, 1)
	}
}

// Processed returns the number of jobs this worker has picked up
func (w *Worker) Processed() int64 {
	return atomic.LoadInt64(&w.processed)
}
