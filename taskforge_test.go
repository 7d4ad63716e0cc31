package taskforge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/job"
)

func TestBuildEmitters(t *testing.T) {
	original := settings
	defer SetSettings(original)

	SetSettings(Settings{Emitter: EmitterNone})
	emitters, err := buildEmitters()
	require.NoError(t, err)
	assert.Empty(t, emitters)

	SetSettings(Settings{Emitter: EmitterRedis, RedisURI: "redis://localhost:6379/"})
	emitters, err = buildEmitters()
	require.NoError(t, err)
	require.Len(t, emitters, 1)
	assert.Equal(t, "redis", emitters[0].Type())

	SetSettings(Settings{Emitter: EmitterRabbitMQ})
	emitters, err = buildEmitters()
	require.NoError(t, err)
	require.Len(t, emitters, 1)
	assert.Equal(t, "rabbitmq", emitters[0].Type())

	SetSettings(Settings{Emitter: "kafka"})
	_, err = buildEmitters()
	assert.Error(t, err)
}

func TestDefaultService_SubmitAndStatus(t *testing.T) {
	original := settings
	defer func() {
		Close()
		SetSettings(original)
	}()
	SetSettings(Settings{
		Concurrency:     2,
		QueueCapacity:   10,
		Retention:       10,
		ShutdownTimeout: 2 * time.Second,
	})

	require.NoError(t, RegisterJobHandler("greet", func(j *job.Job, phase core.Phase) error {
		return nil
	}))

	require.NoError(t, Start())

	id, err := Submit("greet", core.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return "hello", nil
	}))
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		record, err := JobStatus(id)
		require.NoError(t, err)
		if record.Status.Terminal() {
			assert.Equal(t, job.StatusCompleted, record.Status)
			assert.Equal(t, "hello", record.Result)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", record.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats, err := QueueStats()
	require.NoError(t, err)
	assert.True(t, stats.Running)
	assert.Equal(t, 2, stats.TotalWorkers)

	require.NoError(t, Stop(time.Second))
}

func TestDefaultService_CancelUnknown(t *testing.T) {
	defer Close()
	assert.False(t, Cancel("no-such-job"))
}
