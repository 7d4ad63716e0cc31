// Package job defines the work descriptor processed by the taskforge engine
// and its lifecycle state machine.
package job

import (
	"time"
)

// Priority is the ordinal scheduling class of a job. Lower values are
// served first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// String returns the human-readable priority name
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Status represents the current lifecycle state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusRetrying  Status = "retrying"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a terminal state
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsValidStatus returns true if the status string is a valid Status
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusRunning, StatusRetrying,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is a unit of scheduled work with a priority, retry policy, and
// lifecycle state. The engine owns all mutable fields; callers observe
// jobs only through cloned snapshots.
//
// Valid transitions:
//
//	pending → running → {completed | retrying | failed | cancelled}
//	retrying → pending (re-enqueued with an updated ScheduledAt)
//	{pending, running, retrying} → cancelled
type Job struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	RetryCount int           `json:"retry_count,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Result   interface{}       `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// New creates a pending job of the given type
func New(id, jobType string) *Job {
	return &Job{
		ID:        id,
		Type:      jobType,
		Priority:  PriorityNormal,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// Due reports whether the job is eligible to run at the given time
func (j *Job) Due(now time.Time) bool {
	return j.ScheduledAt == nil || !j.ScheduledAt.After(now)
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = StatusRunning
	j.StartedAt = &now
}

// Complete marks the job as completed with its result
func (j *Job) Complete(result interface{}) {
	now := time.Now()
	j.Status = StatusCompleted
	j.Result = result
	j.CompletedAt = &now
}

// Fail marks the job as permanently failed
func (j *Job) Fail(err error) {
	now := time.Now()
	j.Status = StatusFailed
	j.Error = err.Error()
	j.CompletedAt = &now
}

// Cancel marks the job as cancelled with a reason
func (j *Job) Cancel(reason string) {
	now := time.Now()
	j.Status = StatusCancelled
	j.Error = reason
	j.CompletedAt = &now
}

// ScheduleRetry records a failed attempt and makes the job eligible to run
// again after the given delay
func (j *Job) ScheduleRetry(err error, delay time.Duration) {
	at := time.Now().Add(delay)
	j.Status = StatusRetrying
	j.RetryCount++
	j.Error = err.Error()
	j.ScheduledAt = &at
}

// Clone returns a copy of the job safe for use outside the engine's locks.
// Result is shared; the engine never mutates a result after setting it.
func (j *Job) Clone() *Job {
	c := *j
	if j.ScheduledAt != nil {
		t := *j.ScheduledAt
		c.ScheduledAt = &t
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Metadata != nil {
		c.Metadata = make(map[string]string, len(j.Metadata))
		for k, v := range j.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
