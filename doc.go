// Package taskforge is an in-process background job processing engine. It
// accepts units of work with a priority and a deferred/retry policy,
// executes them across a bounded worker pool, tracks their lifecycle, and
// exposes status, cancellation, and metrics to the submitting service.
//
// Jobs move through a small state machine:
//
//	pending → running → {completed | retrying | failed | cancelled}
//
// A failing job is retried with capped exponential backoff until its retry
// budget is exhausted; terminal jobs stay queryable until the retention cap
// prunes them.
//
// # Example
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/taskforge/taskforge/core"
//		"github.com/taskforge/taskforge/job"
//		"github.com/taskforge/taskforge/registry"
//	)
//
//	func main() {
//		handlers := registry.NewHandlers()
//		svc := core.NewService(handlers, nil, core.WithConcurrency(10))
//
//		if err := svc.Start(); err != nil {
//			panic(err)
//		}
//		defer svc.Stop(0)
//
//		id, err := svc.Submit("billing.statement", core.TaskFunc(
//			func(ctx context.Context) (interface{}, error) {
//				return generateStatement(ctx)
//			}),
//			core.WithPriority(job.PriorityHigh),
//		)
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println("submitted", id)
//	}
//
// # Hooks
//
// Per-job-type hooks are the injection point for the calling service's own
// logic; the engine never knows their semantics:
//
//	handlers.RegisterJobHandler("billing.statement", func(j *job.Job, phase core.Phase) error {
//		log.Printf("%s: %s", phase, j.ID)
//		return nil
//	})
//	handlers.RegisterCleanupHandler("billing.statement", func(j *job.Job) error {
//		return releaseStatementLock(j)
//	})
//
// # Cancellation
//
// The context handed to a Task is its cancellation token: it is cancelled
// when the job is cancelled, when its timeout elapses, or during shutdown.
// Cancellation of running work is cooperative; the bookkeeping change is
// immediate either way.
//
// # Lifecycle events
//
// Optional emitters fan job state transitions out to Redis or RabbitMQ for
// out-of-process dashboards:
//
//	emitter := redis.NewEmitter(redis.DefaultOptions())
//	svc := core.NewService(handlers, []core.Emitter{emitter})
//
// # Package-level facade
//
// For simple setups the root package keeps a default service:
//
//	taskforge.RegisterJobHandler("noop", myHook)
//	id, _ := taskforge.Submit("noop", myTask)
//	if err := taskforge.Work(); err != nil {
//		fmt.Println("Error:", err)
//	}
package taskforge
