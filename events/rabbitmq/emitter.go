// Package rabbitmq provides a lifecycle event emitter that publishes job
// state transitions as JSON messages to a RabbitMQ topic exchange, routed
// by event type.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/errors"
)

// Emitter publishes job lifecycle events to RabbitMQ
type Emitter struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	options Options
}

// NewEmitter creates a RabbitMQ event emitter
func NewEmitter(options Options) *Emitter {
	return &Emitter{options: options}
}

// Connect establishes the connection and declares the exchange
func (e *Emitter) Connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(e.options.URI, amqp.Config{
		Heartbeat: e.options.Heartbeat,
	})
	if err != nil {
		return errors.NewConnectionError(e.options.URI,
			fmt.Errorf("failed to connect to RabbitMQ: %w", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.NewConnectionError(e.options.URI,
			fmt.Errorf("failed to open channel: %w", err))
	}

	if err := channel.ExchangeDeclare(
		e.options.Exchange,
		"topic",
		e.options.ExchangeDurable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	e.mu.Lock()
	e.conn = conn
	e.channel = channel
	e.mu.Unlock()
	return nil
}

// Emit publishes one lifecycle event, routed by event type
func (e *Emitter) Emit(ctx context.Context, event core.Event) error {
	e.mu.Lock()
	channel := e.channel
	e.mu.Unlock()

	if channel == nil {
		return errors.ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return channel.PublishWithContext(ctx,
		e.options.Exchange,
		fmt.Sprintf("%s.%s", e.options.RoutingKeyPrefix, event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.Timestamp,
			Body:        payload,
		},
	)
}

// Close closes the channel and connection
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.channel != nil {
		if err := e.channel.Close(); err != nil {
			return err
		}
		e.channel = nil
	}
	if e.conn != nil {
		if err := e.conn.Close(); err != nil {
			return err
		}
		e.conn = nil
	}
	return nil
}

// Type returns the emitter backend name
func (e *Emitter) Type() string {
	return "rabbitmq"
}
