package core

import (
	"time"
)

// Config holds service configuration
type Config struct {
	Concurrency     int
	QueueCapacity   int
	Retention       int
	DequeueWait     time.Duration
	RequeueDamping  time.Duration
	ShutdownTimeout time.Duration
	MaxRetryDelay   time.Duration
}

// Option is a function that modifies service configuration
type Option func(*Config)

// defaultConfig returns default configuration
func defaultConfig() *Config {
	return &Config{
		Concurrency:     5,
		QueueCapacity:   1000,
		Retention:       1000,
		DequeueWait:     time.Second,
		RequeueDamping:  100 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
		MaxRetryDelay:   300 * time.Second,
	}
}

// WithConcurrency sets the number of concurrent workers
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithQueueCapacity sets the maximum number of queued jobs
func WithQueueCapacity(n int) Option {
	return func(c *Config) {
		c.QueueCapacity = n
	}
}

// WithRetention sets how many terminal jobs are kept for status lookup
func WithRetention(n int) Option {
	return func(c *Config) {
		c.Retention = n
	}
}

// WithDequeueWait sets how long an idle worker blocks on the queue before
// re-checking the shutdown flag
func WithDequeueWait(d time.Duration) Option {
	return func(c *Config) {
		c.DequeueWait = d
	}
}

// WithShutdownTimeout sets the default graceful shutdown timeout
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithMaxRetryDelay caps the exponential retry backoff
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxRetryDelay = d
	}
}
