package core

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerPool manages a fixed-size set of workers consuming the queue
type WorkerPool struct {
	queue       *PriorityQueue
	store       *Store
	executor    *Executor
	concurrency int
	dequeueWait time.Duration
	damping     time.Duration

	workers        []*Worker
	runningWorkers int32 // worker loops currently alive
	busyWorkers    int32 // workers currently executing a job
	wg             sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(
	queue *PriorityQueue,
	store *Store,
	executor *Executor,
	concurrency int,
	dequeueWait time.Duration,
	damping time.Duration,
) *WorkerPool {
	return &WorkerPool{
		queue:       queue,
		store:       store,
		executor:    executor,
		concurrency: concurrency,
		dequeueWait: dequeueWait,
		damping:     damping,
		workers:     make([]*Worker, 0, concurrency),
	}
}

// Start spins up exactly concurrency worker loops and blocks until all of
// them have exited. ctx stops the loops; jobBase parents each job's
// context so in-flight work survives loop shutdown until it is drained or
// force-cancelled.
func (wp *WorkerPool) Start(ctx, jobBase context.Context) {
	slog.Info("Starting worker pool", "workers", wp.concurrency)

	for i := 0; i < wp.concurrency; i++ {
		worker := NewWorker(
			strconv.Itoa(i),
			wp.queue,
			wp.store,
			wp.executor,
			wp.dequeueWait,
			wp.damping,
			&wp.busyWorkers,
			jobBase,
		)
		wp.workers = append(wp.workers, worker)
	}

	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go func(w *Worker) {
			defer wp.wg.Done()
			atomic.AddInt32(&wp.runningWorkers, 1)
			defer atomic.AddInt32(&wp.runningWorkers, -1)

			w.Work(ctx)
		}(worker)
	}

	wp.wg.Wait()
	slog.Info("Worker pool stopped")
}

// RunningWorkers returns the number of worker loops currently alive
func (wp *WorkerPool) RunningWorkers() int {
	return int(atomic.LoadInt32(&wp.runningWorkers))
}

// BusyWorkers returns the number of workers currently executing a job
func (wp *WorkerPool) BusyWorkers() int {
	return int(atomic.LoadInt32(&wp.busyWorkers))
}

// TotalWorkers returns the configured pool size
func (wp *WorkerPool) TotalWorkers() int {
	return wp.concurrency
}
