package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

func TestStoreAppendAndSnapshot(t *testing.T) {
	s := NewStore()
	s.Append(models.NewUserMessage("hi", nil))
	s.Append(models.NewAssistantPlaceholder())

	assert.Equal(t, 2, s.Len())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	// Snapshot is detached from the store.
	msgs[0].Content = "mutated"
	fresh := s.Messages()
	assert.Equal(t, "hi", fresh[0].Content)
}

func TestStoreApplyToLastRoleGate(t *testing.T) {
	s := NewStore()

	// Empty timeline: nothing to apply to.
	assert.False(t, s.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		m.Content = "x"
	}))

	s.Append(models.NewUserMessage("hi", nil))

	// Trailing message is a user message; assistant mutation is dropped.
	assert.False(t, s.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		m.Content = "x"
	}))
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "hi", last.Content)

	s.Append(models.NewAssistantPlaceholder())
	assert.True(t, s.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		m.Content = "partial answer"
	}))
	last, _ = s.Last()
	assert.Equal(t, "partial answer", last.Content)
}

func TestStoreTruncateFrom(t *testing.T) {
	s := NewStore()
	s.Append(models.NewUserMessage("one", nil))
	s.Append(models.NewUserMessage("two", nil))
	s.Append(models.NewUserMessage("three", nil))

	t.Run("OutOfRangeIsNoOp", func(t *testing.T) {
		s.TruncateFrom(-1)
		s.TruncateFrom(3)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("KeepsPrefixOrder", func(t *testing.T) {
		s.TruncateFrom(1)
		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "one", msgs[0].Content)
	})

	t.Run("ZeroClearsAll", func(t *testing.T) {
		s.TruncateFrom(0)
		assert.Equal(t, 0, s.Len())
	})
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	s.Append(models.NewUserMessage("stale", nil))

	history := []models.Message{
		models.NewUserMessage("first", nil),
		{Role: models.RoleAssistant, Content: "reply"},
	}
	s.Replace(history)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)

	// The store copied the slice; caller mutations do not leak in.
	history[0].Content = "mutated"
	assert.Equal(t, "first", s.Messages()[0].Content)
}

func TestStoreChangeHandler(t *testing.T) {
	s := NewStore()
	var calls int
	s.SetChangeHandler(func() { calls++ })

	s.Append(models.NewUserMessage("hi", nil))
	s.SetStreaming(true)
	s.SetLoading(true)
	s.TruncateFrom(0)

	assert.Equal(t, 4, calls)
	assert.True(t, s.Streaming())
	assert.True(t, s.Loading())
}
