// Package errors provides error types and utilities for the taskforge library.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common conditions
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrQueueFull    = errors.New("queue is full")
	ErrQueueClosed  = errors.New("queue is closed")
	ErrTimeout      = errors.New("operation timed out")
	ErrShutdown     = errors.New("shutting down")
	ErrNotConnected = errors.New("not connected")
	ErrEmptyJobType = errors.New("job type cannot be empty")
	ErrNilTask      = errors.New("task cannot be nil")
	ErrNilHandler   = errors.New("handler cannot be nil")
)

// QueueFullError is returned to a submitter when the queue is at capacity.
// The submission is rejected and no job is created.
type QueueFullError struct {
	Capacity int // configured queue capacity
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("queue is full (capacity %d)", e.Capacity)
}

func (e *QueueFullError) Unwrap() error {
	return ErrQueueFull
}

// ExecutionError wraps any error raised by a job's task body. It drives the
// retry policy and is surfaced on the job record, never to the submitter.
type ExecutionError struct {
	JobType string // job type
	JobID   string // job id
	Err     error  // underlying error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("job %s (%s): %v", e.JobType, e.JobID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError is raised internally when a task exceeds its configured
// timeout. Treated identically to ExecutionError for retry purposes.
type TimeoutError struct {
	JobID    string        // job id
	Duration time.Duration // configured timeout
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %s", e.JobID, e.Duration)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// ConnectionError represents emitter connection failures
type ConnectionError struct {
	URI string // connection URI (may be redacted)
	Err error  // underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewQueueFullError creates a new queue full error
func NewQueueFullError(capacity int) error {
	return &QueueFullError{Capacity: capacity}
}

// NewExecutionError creates a new execution error
func NewExecutionError(jobType, jobID string, err error) error {
	return &ExecutionError{JobType: jobType, JobID: jobID, Err: err}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(jobID string, timeout time.Duration) error {
	return &TimeoutError{JobID: jobID, Duration: timeout}
}

// NewConnectionError creates a new connection error
func NewConnectionError(uri string, err error) error {
	return &ConnectionError{URI: uri, Err: err}
}

// IsQueueFull checks if an error indicates a full queue
func IsQueueFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool {
	if t, ok := err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return errors.Is(err, ErrTimeout)
}

// IsNotFound checks if an error indicates an unknown job id
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}
