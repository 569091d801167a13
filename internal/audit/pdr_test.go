package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) WritePDR(ctx context.Context, action, inputsHash, outcome string, orderID int64, details string) (*models.PDREntry, error) {
	args := m.Called(ctx, action, inputsHash, outcome, orderID, details)
	entry, _ := args.Get(0).(*models.PDREntry)
	return entry, args.Error(1)
}

func TestPDRWriter_Record(t *testing.T) {
	t.Run("Should hash inputs and forward to the sink", func(t *testing.T) {
		inputs := models.TaskDescriptor{TaskType: "logtofile", Args: map[string]any{"content": "x"}}
		sink := &MockSink{}
		sink.On("WritePDR", mock.Anything, ActionTaskExecute, HashInputs(inputs), "success", int64(3), "logtofile").
			Return(&models.PDREntry{ID: "p1"}, nil)

		entry, err := NewPDRWriter(sink).Record(t.Context(), ActionTaskExecute, inputs, "success", 3, "logtofile")

		require.NoError(t, err)
		assert.Equal(t, "p1", entry.ID)
		sink.AssertExpectations(t)
	})
}

func TestHashInputs(t *testing.T) {
	t.Run("Should be stable and input sensitive", func(t *testing.T) {
		a := HashInputs(map[string]any{"a": 1, "b": 2})
		b := HashInputs(map[string]any{"b": 2, "a": 1})
		c := HashInputs(map[string]any{"a": 2})

		assert.Len(t, a, 64)
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("Should mark unhashable inputs", func(t *testing.T) {
		assert.Equal(t, "hash_error", HashInputs(make(chan int)))
	})
}
