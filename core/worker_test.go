package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge/job"
)

func TestWorker_DeferredJobRequeueFailure(t *testing.T) {
	setup := NewTestSetup()
	setup.Hooks.RecordCleanups("test-job")

	store := NewStore(10)
	queue := NewPriorityQueue(10)
	metrics := NewMetrics()
	executor := NewExecutor(store, queue, setup.Hooks, metrics, RetryPolicy{},
		func(eventType EventType, snap *job.Job) {
			_ = setup.Emitter.Emit(context.Background(),
				Event{Type: eventType, Job: snap, Timestamp: time.Now()})
		})

	j := newTestJob("deferred")
	future := time.Now().Add(time.Hour)
	j.ScheduledAt = &future
	require.NoError(t, store.Add(j, succeedTask(nil)))
	require.NoError(t, queue.Enqueue(j))

	// Closing the queue still lets the worker pop the job, but rejects the
	// re-enqueue of the not-yet-due job.
	queue.Close()

	var busy int32
	worker := NewWorker("0", queue, store, executor,
		10*time.Millisecond, time.Millisecond, &busy, context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Work(ctx)

	// The job must not be dropped into limbo: it finalizes as failed.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := store.Get("deferred")
		require.NoError(t, err)
		if got.Status.Terminal() {
			assert.Equal(t, job.StatusFailed, got.Status)
			assert.Contains(t, got.Error, "requeue rejected")
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("deferred job stuck in %s", got.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, 0, store.ActiveCount())
	assert.Equal(t, int64(1), metrics.Snapshot().Failed)
	assert.Eventually(t, func() bool {
		types := setup.Emitter.EventTypes("deferred")
		return len(types) == 1 && types[0] == EventFailed
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		cleaned := setup.Hooks.Cleaned()
		return len(cleaned) == 1 && cleaned[0] == "deferred"
	}, 2*time.Second, 5*time.Millisecond)
}
