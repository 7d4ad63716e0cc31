package core

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge/errors"
	"github.com/taskforge/taskforge/job"
)

// Service is the background job processing engine: a bounded priority
// queue, a worker pool consuming it, and the bookkeeping registries
// callers poll for status.
type Service struct {
	queue    *PriorityQueue
	store    *Store
	handlers HandlerRegistry
	metrics  *Metrics
	emitters []Emitter
	executor *Executor
	config   *Config

	mu      sync.Mutex
	running bool
	pool    *WorkerPool
	ctx     context.Context
	cancel  context.CancelFunc

	// jobCtx parents every job's context. Stop cancels it only after the
	// drain timeout, so in-flight jobs may finish while the loops wind
	// down.
	jobCtx    context.Context
	jobCancel context.CancelFunc
	wg        sync.WaitGroup
}

// NewService creates a new service with dependency injection. handlers may
// be nil when no per-type hooks are needed; emitters may be empty.
func NewService(handlers HandlerRegistry, emitters []Emitter, options ...Option) *Service {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	if handlers == nil {
		handlers = noopHandlers{}
	}

	s := &Service{
		queue:    NewPriorityQueue(config.QueueCapacity),
		store:    NewStore(config.Retention),
		handlers: handlers,
		metrics:  NewMetrics(),
		emitters: emitters,
		config:   config,
	}
	s.executor = NewExecutor(
		s.store,
		s.queue,
		handlers,
		s.metrics,
		RetryPolicy{MaxDelay: config.MaxRetryDelay},
		s.emit,
	)
	return s
}

// SubmitOption customizes a single submission
type SubmitOption func(*job.Job)

// WithPriority sets the job's scheduling class
func WithPriority(p job.Priority) SubmitOption {
	return func(j *job.Job) { j.Priority = p }
}

// WithMaxRetries sets how many times a failing job is retried
func WithMaxRetries(n int) SubmitOption {
	return func(j *job.Job) { j.MaxRetries = n }
}

// WithRetryDelay sets the base backoff between retries
func WithRetryDelay(d time.Duration) SubmitOption {
	return func(j *job.Job) { j.RetryDelay = d }
}

// WithTimeout bounds a single execution attempt
func WithTimeout(d time.Duration) SubmitOption {
	return func(j *job.Job) { j.Timeout = d }
}

// WithScheduledAt defers the job until the given time
func WithScheduledAt(t time.Time) SubmitOption {
	return func(j *job.Job) { j.ScheduledAt = &t }
}

// WithMetadata attaches free-form key/value pairs, round-tripped unchanged
func WithMetadata(md map[string]string) SubmitOption {
	return func(j *job.Job) { j.Metadata = md }
}

// Submit creates a pending job and enqueues it. It returns the assigned job
// id, or a QueueFullError when the queue is at capacity (in which case no
// job is created).
func (s *Service) Submit(jobType string, task Task, opts ...SubmitOption) (string, error) {
	if jobType == "" {
		return "", errors.ErrEmptyJobType
	}
	if task == nil {
		return "", errors.ErrNilTask
	}

	j := job.New(uuid.NewString(), jobType)
	j.MaxRetries = 3
	j.RetryDelay = DefaultRetryDelay
	for _, opt := range opts {
		opt(j)
	}

	// Snapshot before the job becomes visible to workers.
	snap := j.Clone()

	if err := s.store.Add(j, task); err != nil {
		return "", err
	}
	if err := s.queue.Enqueue(j); err != nil {
		s.store.Remove(j.ID)
		return "", err
	}

	slog.Debug("Job submitted", "id", j.ID, "type", jobType, "priority", snap.Priority)
	s.emit(EventSubmitted, snap)
	return j.ID, nil
}

// JobStatus returns a snapshot of the job from the active or completed
// registry, or ErrJobNotFound.
func (s *Service) JobStatus(id string) (*job.Job, error) {
	return s.store.Get(id)
}

// Cancel cancels a pending, running, or retrying job. The bookkeeping
// change is immediate; a running task only stops once it observes its
// context or finishes naturally. Returns false when the job is unknown or
// already terminal.
func (s *Service) Cancel(id string) bool {
	snap, ok := s.store.Cancel(id, "cancelled by caller")
	if !ok {
		return false
	}

	slog.Info("Job cancelled", "id", id, "type", snap.Type)
	s.emit(EventCancelled, snap)
	s.executor.runCleanup(snap)
	return true
}

// QueueStats returns a snapshot of all counters plus queue/registry sizes
func (s *Service) QueueStats() QueueStats {
	s.mu.Lock()
	running := s.running
	pool := s.pool
	s.mu.Unlock()

	stats := QueueStats{
		QueueSize:     s.queue.Len(),
		ActiveJobs:    s.store.ActiveCount(),
		CompletedJobs: s.store.CompletedCount(),
		Running:       running,
		Metrics:       s.metrics.Snapshot(),
	}
	if pool != nil {
		stats.RunningWorkers = pool.RunningWorkers()
		stats.TotalWorkers = pool.TotalWorkers()
		stats.Metrics.ActiveWorkers = pool.BusyWorkers()
	}
	return stats
}

// Start spins up the worker pool. Calling Start while already running is a
// no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Info("Service already running, ignoring Start")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.jobCtx, s.jobCancel = context.WithCancel(context.Background())

	for _, emitter := range s.emitters {
		if err := emitter.Connect(s.ctx); err != nil {
			slog.Warn("Failed to connect emitter", "type", emitter.Type(), "error", err)
		}
	}

	s.pool = NewWorkerPool(
		s.queue,
		s.store,
		s.executor,
		s.config.Concurrency,
		s.config.DequeueWait,
		s.config.RequeueDamping,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pool.Start(s.ctx, s.jobCtx)
	}()

	s.running = true
	slog.Info("Service started", "workers", s.config.Concurrency)
	return nil
}

// Stop gracefully shuts the service down: workers stop accepting new work,
// in-flight jobs get up to timeout to drain, and anything still running
// after that is forcibly marked cancelled. A timeout of zero or less uses
// the configured default.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	jobCancel := s.jobCancel
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = s.config.ShutdownTimeout
	}

	// Stop the worker loops. Jobs already executing keep their own
	// context and drain within the timeout.
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Service stopped gracefully")
	case <-time.After(timeout):
		slog.Warn("Service shutdown timeout exceeded, cancelling in-flight jobs")
		for _, snap := range s.store.CancelRunning("service shutdown") {
			slog.Warn("Job cancelled by shutdown", "id", snap.ID, "type", snap.Type)
			s.emit(EventCancelled, snap)
			s.executor.runCleanup(snap)
		}
		// The per-job cancel funcs fired above unblock the executors;
		// cancelling the base covers any job that raced past them.
		jobCancel()
		<-done
	}

	jobCancel()

	for _, emitter := range s.emitters {
		if err := emitter.Close(); err != nil {
			slog.Error("Error closing emitter", "type", emitter.Type(), "error", err)
		}
	}

	return nil
}

// Run starts the service and blocks until ctx is cancelled or a shutdown
// signal is received, then stops gracefully.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	}

	return s.Stop(s.config.ShutdownTimeout)
}

// emit fans a lifecycle event out to all emitters. Emitter failures are
// logged and swallowed.
func (s *Service) emit(eventType EventType, snap *job.Job) {
	if len(s.emitters) == 0 {
		return
	}

	event := Event{Type: eventType, Job: snap, Timestamp: time.Now()}
	for _, emitter := range s.emitters {
		if err := emitter.Emit(context.Background(), event); err != nil {
			slog.Warn("Failed to emit job event",
				"type", emitter.Type(), "event", eventType, "error", err)
		}
	}
}

// noopHandlers is the default hook registry when none is injected
type noopHandlers struct{}

func (noopHandlers) GetHandler(string) (Handler, bool)               { return nil, false }
func (noopHandlers) GetCleanupHandler(string) (CleanupHandler, bool) { return nil, false }
