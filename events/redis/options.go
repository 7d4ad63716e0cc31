package redis

import "time"

// Options for the Redis event emitter
type Options struct {
	// URI is the Redis connection URI (redis://host:port/db)
	URI string

	// Namespace is the key prefix in Redis
	Namespace string

	// Channel is the pub/sub channel events are published to
	Channel string

	// Connection pool settings
	MaxConnections int
	MaxIdle        int
	IdleTimeout    time.Duration

	// Connection timeouts
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// TLS options
	UseTLS        bool
	TLSSkipVerify bool
	TLSCertPath   string
}

// DefaultOptions returns default Redis emitter options
func DefaultOptions() Options {
	return Options{
		URI:            "redis://localhost:6379/",
		Namespace:      "taskforge:",
		Channel:        "taskforge:events",
		MaxConnections: 10,
		MaxIdle:        2,
		IdleTimeout:    4 * time.Minute,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}
