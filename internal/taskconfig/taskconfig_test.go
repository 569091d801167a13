package taskconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

type mapOptions map[string]string

func (m mapOptions) GetOption(_ context.Context, name string) (string, error) { return m[name], nil }

func (m mapOptions) SetOption(_ context.Context, name, value string) error {
	m[name] = value
	return nil
}

type failingOptions struct{}

func (failingOptions) GetOption(context.Context, string) (string, error) {
	return "", errors.New("db down")
}
func (failingOptions) SetOption(context.Context, string, string) error { return nil }

func TestOptionStore(t *testing.T) {
	list := []models.TaskDescriptor{
		{TaskType: "sendwebhook", Args: map[string]any{"delivery_url": "https://example.com/a/b", "secret": "x"}},
		{TaskType: "trashorder", Args: map[string]any{"reason": "<spam>"}},
	}

	t.Run("Should return an empty list for an unknown status", func(t *testing.T) {
		s := New(mapOptions{})

		got, err := s.GetTaskList(t.Context(), "completed")

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Should round-trip a list in order with unescaped slashes", func(t *testing.T) {
		opts := mapOptions{}
		s := New(opts)

		require.NoError(t, s.SetTaskList(t.Context(), "completed", list))
		got, err := s.GetTaskList(t.Context(), "completed")

		require.NoError(t, err)
		assert.Equal(t, list, got)
		assert.Contains(t, opts[OptionKey], `https://example.com/a/b`)
		assert.Contains(t, opts[OptionKey], `<spam>`)
	})

	t.Run("Should keep other statuses when replacing one", func(t *testing.T) {
		s := New(mapOptions{})
		require.NoError(t, s.SetTaskList(t.Context(), "completed", list))
		require.NoError(t, s.SetTaskList(t.Context(), "processing", list[:1]))
		require.NoError(t, s.SetTaskList(t.Context(), "completed", list[1:]))

		got, err := s.GetTaskList(t.Context(), "completed")
		require.NoError(t, err)
		assert.Equal(t, list[1:], got)

		statuses, err := s.Statuses(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"completed", "processing"}, statuses)
	})

	t.Run("Should drop the status on an empty list", func(t *testing.T) {
		s := New(mapOptions{})
		require.NoError(t, s.SetTaskList(t.Context(), "completed", list))
		require.NoError(t, s.SetTaskList(t.Context(), "completed", nil))

		statuses, err := s.Statuses(t.Context())
		require.NoError(t, err)
		assert.Empty(t, statuses)
	})

	t.Run("Should skip malformed descriptors", func(t *testing.T) {
		opts := mapOptions{OptionKey: `{"completed":"[{\"args\":{}},{\"task_type\":\"logtofile\"},7,{\"task_type\":\"trashorder\",\"args\":{\"reason\":\"r\"}}]","failed":"not json"}`}
		s := New(opts)

		got, err := s.GetTaskList(t.Context(), "completed")
		require.NoError(t, err)
		assert.Equal(t, []models.TaskDescriptor{
			{TaskType: "logtofile", Args: map[string]any{}},
			{TaskType: "trashorder", Args: map[string]any{"reason": "r"}},
		}, got)

		got, err = s.GetTaskList(t.Context(), "failed")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Should surface option store errors", func(t *testing.T) {
		_, err := New(failingOptions{}).GetTaskList(t.Context(), "completed")
		assert.Error(t, err)
	})
}
