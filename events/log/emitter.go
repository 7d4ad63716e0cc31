// Package log provides a lifecycle event emitter that writes events to the
// process log. Useful as a development default and in tests.
package log

import (
	"context"
	"log/slog"

	"github.com/taskforge/taskforge/core"
)

// Emitter logs job lifecycle events via slog
type Emitter struct {
	level slog.Level
}

// NewEmitter creates a log emitter at the given level
func NewEmitter(level slog.Level) *Emitter {
	return &Emitter{level: level}
}

// Connect is a no-op for the log emitter
func (e *Emitter) Connect(ctx context.Context) error {
	return nil
}

// Emit writes one lifecycle event to the log
func (e *Emitter) Emit(ctx context.Context, event core.Event) error {
	slog.Log(ctx, e.level, "Job event",
		"event", event.Type,
		"id", event.Job.ID,
		"type", event.Job.Type,
		"status", event.Job.Status,
		"priority", event.Job.Priority,
		"retry_count", event.Job.RetryCount,
		"error", event.Job.Error,
	)
	return nil
}

// Close is a no-op for the log emitter
func (e *Emitter) Close() error {
	return nil
}

// Type returns the emitter backend name
func (e *Emitter) Type() string {
	return "log"
}
