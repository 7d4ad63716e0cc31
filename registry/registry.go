// Package registry provides the per-job-type hook registry through which
// callers wire their own pre/post execution and cleanup callbacks into the
// engine.
package registry

import (
	"sync"

	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/errors"
)

// Handlers is a thread-safe hook registry. At most one execution handler
// and one cleanup handler are kept per job type; registering again
// replaces the previous one.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]core.Handler
	cleanups map[string]core.CleanupHandler
}

// NewHandlers creates an empty hook registry
func NewHandlers() *Handlers {
	return &Handlers{
		handlers: make(map[string]core.Handler),
		cleanups: make(map[string]core.CleanupHandler),
	}
}

// RegisterJobHandler sets the pre/post execution handler for a job type
func (h *Handlers) RegisterJobHandler(jobType string, handler core.Handler) error {
	if jobType == "" {
		return errors.ErrEmptyJobType
	}
	if handler == nil {
		return errors.ErrNilHandler
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers[jobType] = handler
	return nil
}

// RegisterCleanupHandler sets the cleanup handler for a job type
func (h *Handlers) RegisterCleanupHandler(jobType string, cleanup core.CleanupHandler) error {
	if jobType == "" {
		return errors.ErrEmptyJobType
	}
	if cleanup == nil {
		return errors.ErrNilHandler
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.cleanups[jobType] = cleanup
	return nil
}

// GetHandler retrieves the execution handler for a job type
func (h *Handlers) GetHandler(jobType string) (core.Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	handler, ok := h.handlers[jobType]
	return handler, ok
}

// GetCleanupHandler retrieves the cleanup handler for a job type
func (h *Handlers) GetCleanupHandler(jobType string) (core.CleanupHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cleanup, ok := h.cleanups[jobType]
	return cleanup, ok
}

// Types returns all job types with at least one registered hook
func (h *Handlers) Types() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{}, len(h.handlers))
	types := make([]string, 0, len(h.handlers))
	for t := range h.handlers {
		seen[t] = struct{}{}
		types = append(types, t)
	}
	for t := range h.cleanups {
		if _, ok := seen[t]; !ok {
			types = append(types, t)
		}
	}
	return types
}

// Remove unregisters all hooks for a job type
func (h *Handlers) Remove(jobType string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.handlers, jobType)
	delete(h.cleanups, jobType)
}

// Clear removes all registered hooks
func (h *Handlers) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers = make(map[string]core.Handler)
	h.cleanups = make(map[string]core.CleanupHandler)
}
