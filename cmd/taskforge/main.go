// Command taskforge runs a demo engine that accepts no-op jobs, useful for
// smoke-testing worker, retry, and emitter configuration.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/taskforge/taskforge"
	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/job"
)

func main() {
	concurrency := flag.Int("concurrency", 5, "number of concurrent workers")
	capacity := flag.Int("capacity", 1000, "maximum number of queued jobs")
	jobs := flag.Int("jobs", 20, "number of demo jobs to submit")
	failRate := flag.Float64("fail-rate", 0.2, "fraction of demo jobs that fail and retry")
	emitter := flag.String("emitter", "", "lifecycle event backend: redis or rabbitmq")
	redisURI := flag.String("redis-uri", "", "Redis URI for the redis emitter")
	rabbitURI := flag.String("rabbitmq-uri", "", "RabbitMQ URI for the rabbitmq emitter")
	flag.Parse()

	taskforge.SetSettings(taskforge.Settings{
		Concurrency:     *concurrency,
		QueueCapacity:   *capacity,
		Retention:       1000,
		ShutdownTimeout: 30 * time.Second,
		Emitter:         taskforge.EmitterType(*emitter),
		RedisURI:        *redisURI,
		RabbitMQURI:     *rabbitURI,
	})

	if err := taskforge.RegisterJobHandler("demo", func(j *job.Job, phase core.Phase) error {
		log.Printf("%s: %s (%s)", phase, j.ID, j.Status)
		return nil
	}); err != nil {
		log.Fatal("Error:", err)
	}

	go submitDemoJobs(*jobs, *failRate)

	if err := taskforge.Work(); err != nil {
		log.Fatal("Error:", err)
	}
}

func submitDemoJobs(n int, failRate float64) {
	priorities := []job.Priority{
		job.PriorityCritical, job.PriorityHigh, job.PriorityNormal, job.PriorityLow,
	}

	for i := 0; i < n; i++ {
		fail := rand.Float64() < failRate
		id, err := taskforge.Submit("demo",
			core.TaskFunc(func(ctx context.Context) (interface{}, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(rand.Intn(500)) * time.Millisecond):
				}
				if fail {
					return nil, errors.New("simulated failure")
				}
				return "ok", nil
			}),
			core.WithPriority(priorities[rand.Intn(len(priorities))]),
			core.WithRetryDelay(time.Second),
		)
		if err != nil {
			log.Printf("submit failed: %v", err)
			continue
		}
		log.Printf("submitted %s", id)
	}
}
