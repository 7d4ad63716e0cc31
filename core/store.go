package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskforge/taskforge/errors"
	"github.com/taskforge/taskforge/job"
)

// Store holds the engine's two bookkeeping tables: active jobs
// (pending/running/retrying) and completed jobs (terminal), both keyed by
// job id. The completed table is pruned oldest-first once it exceeds the
// retention cap. All job state mutation goes through the store so that a
// single lock guards every transition.
type Store struct {
	mu        sync.Mutex
	active    map[string]*job.Job
	completed map[string]*job.Job
	tasks     map[string]Task
	order     []string // completed ids, oldest first
	retention int

	// cancels holds the context cancel function of each running job so
	// Cancel can signal in-flight work.
	cancels map[string]context.CancelFunc
}

// NewStore creates a store with the given completed-table retention cap
func NewStore(retention int) *Store {
	return &Store{
		active:    make(map[string]*job.Job),
		completed: make(map[string]*job.Job),
		tasks:     make(map[string]Task),
		retention: retention,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Add registers a newly submitted job and its task in the active table.
// The id must be unique across both tables.
func (s *Store) Add(j *job.Job, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[j.ID]; exists {
		return fmt.Errorf("duplicate job id %s", j.ID)
	}
	if _, exists := s.completed[j.ID]; exists {
		return fmt.Errorf("duplicate job id %s", j.ID)
	}

	s.active[j.ID] = j
	s.tasks[j.ID] = task
	return nil
}

// Remove drops a job from the active table. Used to undo a submission whose
// enqueue was rejected.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	delete(s.tasks, id)
}

// Get returns a snapshot of the job from either table
func (s *Store) Get(id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.active[id]; ok {
		return j.Clone(), nil
	}
	if j, ok := s.completed[id]; ok {
		return j.Clone(), nil
	}
	return nil, errors.ErrJobNotFound
}

// BeginRun transitions a dequeued job to running and registers its cancel
// function. It returns false when the job was cancelled while queued (the
// worker must drop it without executing).
func (s *Store) BeginRun(id string, cancel context.CancelFunc) (*job.Job, Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status.Terminal() {
		return nil, nil, false
	}

	j.Start()
	s.cancels[id] = cancel
	return j.Clone(), s.tasks[id], true
}

// Complete transitions a running job to completed and moves it to the
// completed table. Returns false if the job was already finalized
// elsewhere (cancellation wins).
func (s *Store) Complete(id string, result interface{}) (*job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status != job.StatusRunning {
		return nil, false
	}

	j.Complete(result)
	s.finalizeLocked(j)
	return j.Clone(), true
}

// FailOutcome describes how the store resolved a failed attempt
type FailOutcome int

const (
	// OutcomeRetry means the job was rescheduled; the caller must
	// re-enqueue it.
	OutcomeRetry FailOutcome = iota
	// OutcomeFailed means retries are exhausted and the job is terminal.
	OutcomeFailed
	// OutcomeGone means the job was already finalized elsewhere.
	OutcomeGone
)

// Fail records a failed attempt. While attempts remain it schedules a retry
// with the policy's backoff delay and keeps the job in the active table;
// otherwise it finalizes the job as failed.
func (s *Store) Fail(id string, execErr error, policy RetryPolicy) (*job.Job, FailOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status != job.StatusRunning {
		return nil, OutcomeGone
	}
	delete(s.cancels, id)

	if j.RetryCount < j.MaxRetries {
		j.ScheduleRetry(execErr, policy.Delay(j.RetryDelay, j.RetryCount+1))
		return j.Clone(), OutcomeRetry
	}

	j.RetryCount++
	j.Fail(execErr)
	s.finalizeLocked(j)
	return j.Clone(), OutcomeFailed
}

// Requeued transitions a retrying job back to pending once it is queued again
func (s *Store) Requeued(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.active[id]; ok && j.Status == job.StatusRetrying {
		j.Status = job.StatusPending
	}
}

// Cancel finalizes an active job as cancelled and signals its in-flight
// work, if any. Returns false when the job is unknown or already terminal.
// The bookkeeping change is immediate; a running task only stops if it
// observes its context or completes naturally.
func (s *Store) Cancel(id, reason string) (*job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status.Terminal() {
		return nil, false
	}

	j.Cancel(reason)
	s.finalizeLocked(j)

	if cancel, ok := s.cancels[id]; ok {
		delete(s.cancels, id)
		cancel()
	}
	return j.Clone(), true
}

// CancelRunning finalizes every running job as cancelled with the given
// reason. Used when the graceful shutdown timeout elapses with work still
// in flight.
func (s *Store) CancelRunning(reason string) []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled []*job.Job
	for id, j := range s.active {
		if j.Status != job.StatusRunning {
			continue
		}
		j.Cancel(reason)
		s.finalizeLocked(j)
		if cancel, ok := s.cancels[id]; ok {
			delete(s.cancels, id)
			cancel()
		}
		cancelled = append(cancelled, j.Clone())
	}
	return cancelled
}

// EndRun drops the cancel registration of a job whose execution finished
func (s *Store) EndRun(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, id)
}

// IsActive reports whether the job is still in the active table
func (s *Store) IsActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// ActiveCount returns the number of pending/running/retrying jobs
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// CompletedCount returns the number of retained terminal jobs
func (s *Store) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// Abandon finalizes a pending job as failed. Used when a dequeued job that
// is not yet due cannot be returned to the queue; without a queue slot it
// would otherwise sit in the active table forever.
func (s *Store) Abandon(id string, reason error) (*job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status != job.StatusPending {
		return nil, false
	}

	j.Fail(reason)
	s.finalizeLocked(j)
	return j.Clone(), true
}

// AbortRetry finalizes a retrying job as failed. Used when the job could
// not be re-enqueued.
func (s *Store) AbortRetry(id string, reason error) (*job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.active[id]
	if !ok || j.Status != job.StatusRetrying {
		return nil, false
	}

	j.Fail(reason)
	s.finalizeLocked(j)
	return j.Clone(), true
}

// finalizeLocked moves a terminal job from the active to the completed
// table and prunes the completed table beyond the retention cap.
// Jobs finalize in CompletedAt order, so append order is oldest-first.
func (s *Store) finalizeLocked(j *job.Job) {
	delete(s.active, j.ID)
	delete(s.tasks, j.ID)
	s.completed[j.ID] = j
	s.order = append(s.order, j.ID)

	for len(s.completed) > s.retention {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.completed, oldest)
	}
}
