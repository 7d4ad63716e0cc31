package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueFullError(t *testing.T) {
	err := NewQueueFullError(100)

	assert.Contains(t, err.Error(), "capacity 100")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.True(t, IsQueueFull(err))
	assert.True(t, IsQueueFull(fmt.Errorf("submit: %w", err)))
	assert.False(t, IsQueueFull(errors.New("other")))
}

func TestExecutionError(t *testing.T) {
	cause := errors.New("smtp unreachable")
	err := NewExecutionError("email", "job-1", cause)

	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "job-1")
	assert.Contains(t, err.Error(), "smtp unreachable")
	assert.ErrorIs(t, err, cause)
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("job-1", 5*time.Second)

	assert.Contains(t, err.Error(), "job-1")
	assert.Contains(t, err.Error(), "timed out")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTimeout(errors.New("other")))

	var netErr interface{ Timeout() bool }
	assert.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	var toErr *TimeoutError
	assert.ErrorAs(t, err, &toErr)
	assert.Equal(t, "job-1", toErr.JobID)
	assert.Equal(t, 5*time.Second, toErr.Duration)
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("dial refused")
	err := NewConnectionError("redis://localhost:6379/", cause)

	assert.Contains(t, err.Error(), "redis://localhost:6379/")
	assert.ErrorIs(t, err, cause)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrJobNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrJobNotFound)))
	assert.False(t, IsNotFound(ErrQueueFull))
}
