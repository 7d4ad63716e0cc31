package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/taskforge/taskforge/job"
)

// TestSetup provides common test dependencies
type TestSetup struct {
	Hooks   *hookRegistry
	Emitter *captureEmitter
}

// NewTestSetup creates a standard test setup with capturing fakes
func NewTestSetup() *TestSetup {
	// Set up a quiet logger for tests to avoid noise
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
	slog.SetDefault(logger)

	return &TestSetup{
		Hooks:   newHookRegistry(),
		Emitter: newCaptureEmitter(),
	}
}

// ServiceBuilder helps create services for testing
type ServiceBuilder struct {
	setup   *TestSetup
	options []Option
}

// NewService starts building a test service
func (s *TestSetup) NewService() *ServiceBuilder {
	return &ServiceBuilder{
		setup: s,
		options: []Option{
			WithConcurrency(1),
			WithDequeueWait(10 * time.Millisecond),
		},
	}
}

// WithOptions adds service options
func (b *ServiceBuilder) WithOptions(options ...Option) *ServiceBuilder {
	b.options = append(b.options, options...)
	return b
}

// Build creates the service
func (b *ServiceBuilder) Build() *Service {
	return NewService(b.setup.Hooks, []Emitter{b.setup.Emitter}, b.options...)
}

// StartService builds the service, starts it, and registers cleanup
func (b *ServiceBuilder) StartService(t *testing.T) *Service {
	t.Helper()
	svc := b.Build()
	if err := svc.Start(); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(2 * time.Second) })
	return svc
}

// hookRegistry is an in-memory HandlerRegistry recording every invocation
type hookRegistry struct {
	mu       sync.Mutex
	handlers map[string]Handler
	cleanups map[string]CleanupHandler
	phases   []Phase
	cleaned  []string // job ids passed to cleanup handlers
}

func newHookRegistry() *hookRegistry {
	return &hookRegistry{
		handlers: make(map[string]Handler),
		cleanups: make(map[string]CleanupHandler),
	}
}

func (r *hookRegistry) Register(jobType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

func (r *hookRegistry) RegisterCleanup(jobType string, c CleanupHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups[jobType] = c
}

// RecordPhases registers a handler that only records the phases it sees
func (r *hookRegistry) RecordPhases(jobType string) {
	r.Register(jobType, func(j *job.Job, phase Phase) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.phases = append(r.phases, phase)
		return nil
	})
}

// RecordCleanups registers a cleanup handler that records job ids
func (r *hookRegistry) RecordCleanups(jobType string) {
	r.RegisterCleanup(jobType, func(j *job.Job) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.cleaned = append(r.cleaned, j.ID)
		return nil
	})
}

func (r *hookRegistry) GetHandler(jobType string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

func (r *hookRegistry) GetCleanupHandler(jobType string) (CleanupHandler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cleanups[jobType]
	return c, ok
}

func (r *hookRegistry) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.phases...)
}

func (r *hookRegistry) Cleaned() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cleaned...)
}

// captureEmitter records every emitted event in order
type captureEmitter struct {
	mu        sync.Mutex
	events    []Event
	connected bool
	closed    bool
	emitErr   error
}

func newCaptureEmitter() *captureEmitter {
	return &captureEmitter{}
}

func (e *captureEmitter) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = true
	return nil
}

func (e *captureEmitter) Emit(ctx context.Context, event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.emitErr != nil {
		return e.emitErr
	}
	e.events = append(e.events, event)
	return nil
}

func (e *captureEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *captureEmitter) Type() string { return "capture" }

// Events returns a copy of all captured events
func (e *captureEmitter) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.events...)
}

// EventTypes returns the captured event types for a single job id, in order
func (e *captureEmitter) EventTypes(jobID string) []EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	var types []EventType
	for _, ev := range e.events {
		if ev.Job.ID == jobID {
			types = append(types, ev.Type)
		}
	}
	return types
}

// Task helpers

// succeedTask returns a task that immediately succeeds with result
func succeedTask(result interface{}) Task {
	return TaskFunc(func(ctx context.Context) (interface{}, error) {
		return result, nil
	})
}

// failTask returns a task that always fails with message
func failTask(message string) Task {
	return TaskFunc(func(ctx context.Context) (interface{}, error) {
		return nil, errors.New(message)
	})
}

// blockingTask returns a task that holds until released, plus its release
// function. The task honors ctx while blocked.
func blockingTask() (Task, func()) {
	release := make(chan struct{})
	var once sync.Once
	task := TaskFunc(func(ctx context.Context) (interface{}, error) {
		select {
		case <-release:
			return "released", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	return task, func() { once.Do(func() { close(release) }) }
}

// sleepTask returns a task that sleeps for d ignoring its context
func sleepTask(d time.Duration) Task {
	return TaskFunc(func(ctx context.Context) (interface{}, error) {
		time.Sleep(d)
		return nil, nil
	})
}

// waitForStatus polls the job until it reaches want or timeout elapses
func waitForStatus(t *testing.T, svc *Service, id string, want job.Status, timeout time.Duration) *job.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		j, err := svc.JobStatus(id)
		if err != nil {
			t.Fatalf("job %s lookup failed: %v", id, err)
		}
		if j.Status == want {
			return j
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s, wanted %s", id, j.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitForEvents polls the capture emitter until the job's event sequence
// matches want. Events trail the status change, so assertions on them must
// poll rather than read once.
func waitForEvents(t *testing.T, e *captureEmitter, jobID string, want []EventType) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := e.EventTypes(jobID)
		if len(got) == len(want) {
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("job %s events = %v, want %v", jobID, got, want)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s events = %v, want %v", jobID, got, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newTestJob creates a pending job with sane test defaults
func newTestJob(id string) *job.Job {
	j := job.New(id, "test-job")
	j.MaxRetries = 3
	j.RetryDelay = time.Millisecond
	return j
}
