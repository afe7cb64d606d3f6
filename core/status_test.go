package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	t.Run("forward path", func(t *testing.T) {
		s, err := Transition(StatusProcessing, StatusChunksCreated)
		require.NoError(t, err)
		s, err = Transition(s, StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, s)
	})

	t.Run("failed reachable from non-terminal states", func(t *testing.T) {
		assert.True(t, StatusProcessing.CanTransition(StatusFailed))
		assert.True(t, StatusChunksCreated.CanTransition(StatusFailed))
	})

	t.Run("completed is terminal", func(t *testing.T) {
		assert.False(t, StatusCompleted.CanTransition(StatusProcessing))
		assert.False(t, StatusCompleted.CanTransition(StatusChunksCreated))
		assert.False(t, StatusCompleted.CanTransition(StatusFailed))
	})

	t.Run("no regression", func(t *testing.T) {
		assert.False(t, StatusChunksCreated.CanTransition(StatusProcessing))
		assert.False(t, StatusCompleted.CanTransition(StatusChunksCreated))
	})

	t.Run("retry leaves failed", func(t *testing.T) {
		s, err := Transition(StatusFailed, StatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, s)
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		_, err := Transition(StatusProcessing, StatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "chunks_created", StatusChunksCreated.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "failed", StatusFailed.String())
}

func TestParseQueryStatus(t *testing.T) {
	s, err := ParseQueryStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, QueryPending, s)

	_, err = ParseQueryStatus("bogus")
	assert.ErrorIs(t, err, ErrInvalidQueryStatus)
}
