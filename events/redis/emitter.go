// Package redis provides a lifecycle event emitter backed by Redis. Events
// are published on a pub/sub channel and per-event-type counters are kept
// under the configured namespace, so out-of-process dashboards can follow
// the engine without coupling to it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/errors"
	redisUtils "github.com/taskforge/taskforge/internal/redis"
)

// Emitter publishes job lifecycle events to Redis
type Emitter struct {
	pool    *redis.Pool
	options Options
}

// NewEmitter creates a Redis event emitter
func NewEmitter(options Options) *Emitter {
	return &Emitter{options: options}
}

// Connect establishes the Redis connection pool
func (e *Emitter) Connect(ctx context.Context) error {
	pool := redisUtils.CreatePool(redisUtils.PoolConfig{
		URI:            e.options.URI,
		MaxConnections: e.options.MaxConnections,
		MaxIdle:        e.options.MaxIdle,
		IdleTimeout:    e.options.IdleTimeout,
		ConnectTimeout: e.options.ConnectTimeout,
		ReadTimeout:    e.options.ReadTimeout,
		WriteTimeout:   e.options.WriteTimeout,
		UseTLS:         e.options.UseTLS,
		TLSSkipVerify:  e.options.TLSSkipVerify,
		TLSCertPath:    e.options.TLSCertPath,
	})

	conn := pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return errors.NewConnectionError(e.options.URI,
			fmt.Errorf("ping failed: %w", err))
	}

	e.pool = pool
	return nil
}

// Emit publishes one lifecycle event and bumps its counter
func (e *Emitter) Emit(ctx context.Context, event core.Event) error {
	if e.pool == nil {
		return errors.ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn := e.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PUBLISH", e.options.Channel, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if _, err := conn.Do("INCR", e.counterKey(event.Type)); err != nil {
		return fmt.Errorf("failed to increment event counter: %w", err)
	}

	return nil
}

// Close closes the Redis connection pool
func (e *Emitter) Close() error {
	if e.pool != nil {
		return e.pool.Close()
	}
	return nil
}

// Type returns the emitter backend name
func (e *Emitter) Type() string {
	return "redis"
}

func (e *Emitter) counterKey(eventType core.EventType) string {
	return fmt.Sprintf("%sstat:%s", e.options.Namespace, eventType)
}
