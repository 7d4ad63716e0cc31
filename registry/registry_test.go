package registry

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge/core"
	"github.com/taskforge/taskforge/errors"
	"github.com/taskforge/taskforge/job"
)

func noopHandler(j *job.Job, phase core.Phase) error { return nil }

func noopCleanup(j *job.Job) error { return nil }

func TestHandlers_RegisterAndGet(t *testing.T) {
	h := NewHandlers()

	require.NoError(t, h.RegisterJobHandler("email", noopHandler))
	require.NoError(t, h.RegisterCleanupHandler("email", noopCleanup))

	handler, ok := h.GetHandler("email")
	assert.True(t, ok)
	assert.NotNil(t, handler)

	cleanup, ok := h.GetCleanupHandler("email")
	assert.True(t, ok)
	assert.NotNil(t, cleanup)
}

func TestHandlers_GetUnknown(t *testing.T) {
	h := NewHandlers()

	_, ok := h.GetHandler("unknown")
	assert.False(t, ok)
	_, ok = h.GetCleanupHandler("unknown")
	assert.False(t, ok)
}

func TestHandlers_Validation(t *testing.T) {
	h := NewHandlers()

	assert.ErrorIs(t, h.RegisterJobHandler("", noopHandler), errors.ErrEmptyJobType)
	assert.ErrorIs(t, h.RegisterJobHandler("email", nil), errors.ErrNilHandler)
	assert.ErrorIs(t, h.RegisterCleanupHandler("", noopCleanup), errors.ErrEmptyJobType)
	assert.ErrorIs(t, h.RegisterCleanupHandler("email", nil), errors.ErrNilHandler)
}

func TestHandlers_RegisterReplaces(t *testing.T) {
	h := NewHandlers()

	var called string
	require.NoError(t, h.RegisterJobHandler("email", func(j *job.Job, phase core.Phase) error {
		called = "first"
		return nil
	}))
	require.NoError(t, h.RegisterJobHandler("email", func(j *job.Job, phase core.Phase) error {
		called = "second"
		return nil
	}))

	handler, ok := h.GetHandler("email")
	require.True(t, ok)
	require.NoError(t, handler(job.New("job-1", "email"), core.PhasePreExecution))
	assert.Equal(t, "second", called)
}

func TestHandlers_Types(t *testing.T) {
	h := NewHandlers()

	require.NoError(t, h.RegisterJobHandler("email", noopHandler))
	require.NoError(t, h.RegisterJobHandler("report", noopHandler))
	require.NoError(t, h.RegisterCleanupHandler("report", noopCleanup))
	require.NoError(t, h.RegisterCleanupHandler("invoice", noopCleanup))

	types := h.Types()
	sort.Strings(types)
	assert.Equal(t, []string{"email", "invoice", "report"}, types)
}

func TestHandlers_Remove(t *testing.T) {
	h := NewHandlers()

	require.NoError(t, h.RegisterJobHandler("email", noopHandler))
	require.NoError(t, h.RegisterCleanupHandler("email", noopCleanup))

	h.Remove("email")

	_, ok := h.GetHandler("email")
	assert.False(t, ok)
	_, ok = h.GetCleanupHandler("email")
	assert.False(t, ok)
}

func TestHandlers_Clear(t *testing.T) {
	h := NewHandlers()

	require.NoError(t, h.RegisterJobHandler("email", noopHandler))
	require.NoError(t, h.RegisterCleanupHandler("report", noopCleanup))

	h.Clear()

	assert.Empty(t, h.Types())
}
