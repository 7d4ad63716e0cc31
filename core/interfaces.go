package core

import (
	"context"
	"time"

	"github.com/taskforge/taskforge/job"
)

// Task is an opaque executable unit of work. The engine never inspects its
// semantics; it only drives the lifecycle around Execute.
//
// The context passed to Execute is the job's cancellation token: it is
// cancelled when the job is cancelled, when its timeout elapses, or during
// shutdown. Well-behaved tasks poll ctx.Done() at suspension points, but the
// engine's own timeout enforcement is authoritative regardless.
type Task interface {
	Execute(ctx context.Context) (interface{}, error)
}

// TaskFunc adapts a plain function to the Task interface
type TaskFunc func(ctx context.Context) (interface{}, error)

func (f TaskFunc) Execute(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Phase identifies which side of task execution a job handler is invoked on
type Phase string

const (
	PhasePreExecution  Phase = "pre_execution"
	PhasePostExecution Phase = "post_execution"
)

// Handler is a per-job-type callback invoked around task execution.
// Handler failures are logged and never affect the job's own outcome.
type Handler func(j *job.Job, phase Phase) error

// CleanupHandler is invoked once a job reaches a terminal status,
// regardless of whether it completed, failed, or was cancelled.
type CleanupHandler func(j *job.Job) error

// HandlerRegistry defines what the engine needs from a hook registry
type HandlerRegistry interface {
	// GetHandler retrieves the pre/post execution handler for a job type
	GetHandler(jobType string) (Handler, bool)

	// GetCleanupHandler retrieves the cleanup handler for a job type
	GetCleanupHandler(jobType string) (CleanupHandler, bool)
}

// EventType classifies a job lifecycle transition
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventRetrying  EventType = "retrying"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event describes a single job lifecycle transition
type Event struct {
	Type      EventType `json:"type"`
	Job       *job.Job  `json:"job"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter receives job lifecycle events for observability fan-out.
// Emitter failures are logged and swallowed; they never affect the
// engine's own state.
type Emitter interface {
	// Connect establishes any backing connection
	Connect(ctx context.Context) error

	// Emit publishes a single lifecycle event
	Emit(ctx context.Context, event Event) error

	// Close releases the emitter's resources
	Close() error

	// Type returns the emitter backend name
	Type() string
}

// MetricsSnapshot is a point-in-time copy of the engine's counters
type MetricsSnapshot struct {
	TotalProcessed   int64         `json:"total_jobs_processed"`
	Successful       int64         `json:"successful_jobs"`
	Failed           int64         `json:"failed_jobs"`
	Retried          int64         `json:"retried_jobs"`
	AvgExecutionTime time.Duration `json:"avg_execution_time"`
	ActiveWorkers    int           `json:"active_workers"`
}

// QueueStats is a snapshot of queue, registry, and worker state
type QueueStats struct {
	QueueSize      int             `json:"queue_size"`
	ActiveJobs     int             `json:"active_jobs"`
	CompletedJobs  int             `json:"completed_jobs"`
	RunningWorkers int             `json:"running_workers"`
	TotalWorkers   int             `json:"total_workers"`
	Running        bool            `json:"running"`
	Metrics        MetricsSnapshot `json:"metrics"`
}
