package taskforge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/events/rabbitmq"
	eventsredis "github.com/taskforge/taskforge/events/redis"
	"github.com/taskforge/taskforge/job"
	"github.com/taskforge/taskforge/registry"
)

var (
	service        *core.Service
	globalHandlers *registry.Handlers
	initMutex      sync.Mutex
	initialized    bool
)

// EmitterType selects an optional lifecycle event backend
type EmitterType string

const (
	EmitterNone     EmitterType = ""
	EmitterRedis    EmitterType = "redis"
	EmitterRabbitMQ EmitterType = "rabbitmq"
)

// Settings holds the configuration of the default service
type Settings struct {
	// Concurrency is the number of worker loops
	Concurrency int

	// QueueCapacity bounds the number of queued jobs
	QueueCapacity int

	// Retention caps the completed-job table
	Retention int

	// ShutdownTimeout is the default graceful shutdown deadline
	ShutdownTimeout time.Duration

	// Emitter selects an optional lifecycle event backend
	Emitter EmitterType

	// Redis emitter settings
	RedisURI       string
	RedisNamespace string

	// RabbitMQ emitter settings
	RabbitMQURI string
	Exchange    string
}

var settings = Settings{
	Concurrency:     5,
	QueueCapacity:   1000,
	Retention:       1000,
	ShutdownTimeout: 30 * time.Second,
}

// SetSettings replaces the default service settings. Must be called before
// Init.
func SetSettings(s Settings) {
	settings = s
}

func init() {
	globalHandlers = registry.NewHandlers()
}

// Init builds the default service from the current settings
func Init() error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized {
		return nil
	}

	emitters, err := buildEmitters()
	if err != nil {
		return err
	}

	options := []core.Option{
		core.WithConcurrency(settings.Concurrency),
	}
	if settings.QueueCapacity > 0 {
		options = append(options, core.WithQueueCapacity(settings.QueueCapacity))
	}
	if settings.Retention > 0 {
		options = append(options, core.WithRetention(settings.Retention))
	}
	if settings.ShutdownTimeout > 0 {
		options = append(options, core.WithShutdownTimeout(settings.ShutdownTimeout))
	}

	service = core.NewService(globalHandlers, emitters, options...)
	initialized = true
	return nil
}

// buildEmitters assembles the configured event emitters
func buildEmitters() ([]core.Emitter, error) {
	switch settings.Emitter {
	case EmitterNone:
		return nil, nil

	case EmitterRedis:
		opts := eventsredis.DefaultOptions()
		if settings.RedisURI != "" {
			opts.URI = settings.RedisURI
		}
		if settings.RedisNamespace != "" {
			opts.Namespace = settings.RedisNamespace
			opts.Channel = settings.RedisNamespace + "events"
		}
		return []core.Emitter{eventsredis.NewEmitter(opts)}, nil

	case EmitterRabbitMQ:
		opts := rabbitmq.DefaultOptions()
		if settings.RabbitMQURI != "" {
			opts.URI = settings.RabbitMQURI
		}
		if settings.Exchange != "" {
			opts.Exchange = settings.Exchange
		}
		return []core.Emitter{rabbitmq.NewEmitter(opts)}, nil

	default:
		return nil, fmt.Errorf("invalid emitter type: %s. Must be 'redis' or 'rabbitmq'", settings.Emitter)
	}
}

// Work starts the default service and blocks until a shutdown signal is
// received
func Work() error {
	if err := Init(); err != nil {
		return err
	}
	defer Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := signals()
	go func() {
		<-quit
		cancel()
	}()

	if err := service.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	return service.Stop(settings.ShutdownTimeout)
}

// Close stops the default service
func Close() {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized && service != nil {
		_ = service.Stop(settings.ShutdownTimeout)
		initialized = false
	}
}

// Submit enqueues a job on the default service
func Submit(jobType string, task core.Task, opts ...core.SubmitOption) (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	return service.Submit(jobType, task, opts...)
}

// JobStatus returns the current record of a job on the default service
func JobStatus(id string) (*job.Job, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return service.JobStatus(id)
}

// Cancel cancels a job on the default service
func Cancel(id string) bool {
	if err := Init(); err != nil {
		return false
	}
	return service.Cancel(id)
}

// QueueStats returns a stats snapshot of the default service
func QueueStats() (core.QueueStats, error) {
	if err := Init(); err != nil {
		return core.QueueStats{}, err
	}
	return service.QueueStats(), nil
}

// RegisterJobHandler registers a pre/post execution hook for a job type on
// the default service
func RegisterJobHandler(jobType string, handler core.Handler) error {
	return globalHandlers.RegisterJobHandler(jobType, handler)
}

// RegisterCleanupHandler registers a cleanup hook for a job type on the
// default service
func RegisterCleanupHandler(jobType string, cleanup core.CleanupHandler) error {
	return globalHandlers.RegisterCleanupHandler(jobType, cleanup)
}

// Start starts the default service without signal handling
func Start() error {
	if err := Init(); err != nil {
		return err
	}
	return service.Start()
}

// Stop stops the default service, waiting up to timeout for in-flight work
func Stop(timeout time.Duration) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if !initialized || service == nil {
		return nil
	}
	return service.Stop(timeout)
}
