package core

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskforge/taskforge/errors"
	"github.com/taskforge/taskforge/job"
)

// Executor drives a single job through its lifecycle: pre-execution hook,
// timeout-bounded task invocation, success/failure classification, retry
// scheduling, post-execution and cleanup hooks, and metrics updates.
type Executor struct {
	store    *Store
	queue    *PriorityQueue
	handlers HandlerRegistry
	metrics  *Metrics
	policy   RetryPolicy
	emit     func(EventType, *job.Job)
}

// NewExecutor creates an executor bound to the engine's shared state
func NewExecutor(
	store *Store,
	queue *PriorityQueue,
	handlers HandlerRegistry,
	metrics *Metrics,
	policy RetryPolicy,
	emit func(EventType, *job.Job),
) *Executor {
	return &Executor{
		store:    store,
		queue:    queue,
		handlers: handlers,
		metrics:  metrics,
		policy:   policy,
		emit:     emit,
	}
}

// Execute runs one dequeued job to its next state. ctx is the worker's
// context; cancelling it cancels the task.
func (e *Executor) Execute(ctx context.Context, j *job.Job) {
	jobCtx, cancel := context.WithCancel(ctx)

	snap, task, ok := e.store.BeginRun(j.ID, cancel)
	if !ok {
		// Cancelled while queued; it is never observed running.
		cancel()
		return
	}

	e.emit(EventStarted, snap)
	e.runHook(snap, PhasePreExecution)

	start := time.Now()
	result, execErr := e.invoke(jobCtx, snap, task)
	duration := time.Since(start)
	cancel()
	e.store.EndRun(j.ID)

	switch {
	case execErr == nil:
		e.finishSuccess(j.ID, result, duration)

	case stderrors.Is(execErr, context.Canceled):
		// Cancelled mid-flight (caller or shutdown). The cancelling
		// path owns the bookkeeping; nothing left to record here.
		slog.Debug("Job execution interrupted by cancellation", "id", j.ID)

	default:
		e.finishFailure(j, execErr)
	}
}

// invoke runs the task body, bounding it by the job's timeout when one is
// configured. The task runs in its own goroutine so a non-cooperative body
// cannot hold the worker past its deadline.
func (e *Executor) invoke(ctx context.Context, snap *job.Job, task Task) (interface{}, error) {
	runCtx := ctx
	if snap.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, snap.Timeout)
		defer cancel()
	}

	type taskResult struct {
		result interface{}
		err    error
	}
	done := make(chan taskResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- taskResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := task.Execute(runCtx)
		done <- taskResult{result: result, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, errors.NewExecutionError(snap.Type, snap.ID, r.err)
		}
		return r.result, nil
	case <-runCtx.Done():
		if ctx.Err() == nil && runCtx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError(snap.ID, snap.Timeout)
		}
		return nil, context.Canceled
	}
}

func (e *Executor) finishSuccess(id string, result interface{}, duration time.Duration) {
	snap, ok := e.store.Complete(id, result)
	if !ok {
		// Finalized elsewhere while the task was unwinding.
		slog.Debug("Job already finalized, discarding result", "id", id)
		return
	}

	e.metrics.RecordSuccess(duration)
	slog.Debug("Job completed", "id", id, "type", snap.Type, "duration", duration)
	e.emit(EventCompleted, snap)
	e.runHook(snap, PhasePostExecution)
	e.runCleanup(snap)
}

func (e *Executor) finishFailure(j *job.Job, execErr error) {
	snap, outcome := e.store.Fail(j.ID, execErr, e.policy)

	switch outcome {
	case OutcomeRetry:
		e.metrics.RecordRetry()
		slog.Info("Job failed, retry scheduled",
			"id", j.ID, "type", snap.Type,
			"retry", snap.RetryCount, "max_retries", snap.MaxRetries,
			"scheduled_at", snap.ScheduledAt, "error", execErr)
		e.emit(EventRetrying, snap)
		e.runHook(snap, PhasePostExecution)
		e.requeue(j)

	case OutcomeFailed:
		e.metrics.RecordFailure()
		slog.Error("Job failed permanently",
			"id", j.ID, "type", snap.Type,
			"attempts", snap.RetryCount, "error", execErr)
		e.emit(EventFailed, snap)
		e.runHook(snap, PhasePostExecution)
		e.runCleanup(snap)

	case OutcomeGone:
		slog.Debug("Job already finalized, discarding failure", "id", j.ID)
	}
}

// requeue puts a retrying job back on the queue. The re-enqueue uses a fresh
// sequence number, so the job loses its original FIFO position.
func (e *Executor) requeue(j *job.Job) {
	err := e.queue.Enqueue(j)
	if err == nil {
		e.store.Requeued(j.ID)
		return
	}

	if snap, ok := e.store.AbortRetry(j.ID, fmt.Errorf("requeue rejected: %w", err)); ok {
		e.metrics.RecordFailure()
		slog.Error("Failed to requeue retrying job", "id", j.ID, "error", err)
		e.emit(EventFailed, snap)
		e.runCleanup(snap)
	}
}

// AbandonDeferred finalizes a deferred job that could not be returned to
// the queue.
func (e *Executor) AbandonDeferred(j *job.Job, cause error) {
	snap, ok := e.store.Abandon(j.ID, fmt.Errorf("requeue rejected: %w", cause))
	if !ok {
		return
	}

	e.metrics.RecordFailure()
	slog.Error("Failed to requeue deferred job", "id", j.ID, "error", cause)
	e.emit(EventFailed, snap)
	e.runCleanup(snap)
}

// runHook invokes the job type's pre/post execution handler, if registered.
// Hook failures are logged and swallowed.
func (e *Executor) runHook(snap *job.Job, phase Phase) {
	handler, ok := e.handlers.GetHandler(snap.Type)
	if !ok {
		return
	}
	if err := safeHook(func() error { return handler(snap, phase) }); err != nil {
		slog.Warn("Job handler failed", "id", snap.ID, "type", snap.Type,
			"phase", phase, "error", err)
	}
}

// runCleanup invokes the job type's cleanup handler after a terminal
// transition. Cleanup failures are logged and swallowed.
func (e *Executor) runCleanup(snap *job.Job) {
	cleanup, ok := e.handlers.GetCleanupHandler(snap.Type)
	if !ok {
		return
	}
	if err := safeHook(func() error { return cleanup(snap) }); err != nil {
		slog.Warn("Cleanup handler failed", "id", snap.ID, "type", snap.Type,
			"error", err)
	}
}

// safeHook runs a hook with panic recovery
func safeHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
