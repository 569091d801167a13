package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	t.Run("Should create the database file and directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

		s, err := New(dbPath)
		require.NoError(t, err)
		defer s.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
		assert.NoError(t, s.Ping(t.Context()))
	})
}

func TestOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	t.Run("Should return empty for a missing option", func(t *testing.T) {
		v, err := s.GetOption(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Should upsert options", func(t *testing.T) {
		require.NoError(t, s.SetOption(ctx, "k", "one"))
		require.NoError(t, s.SetOption(ctx, "k", "two"))

		v, err := s.GetOption(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)

		v, err = s.GetOption(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, v)
	})
}

func TestOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	order := &models.Order{
		CustomerID:   5,
		CustomerNote: "gift",
		Billing:      models.Address{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		Shipping:     models.Address{FirstName: "Jane", City: "Lyon"},
		Total:        decimal.RequireFromString("19.90"),
		Currency:     "EUR",
		ShippingLines: []models.ShippingLine{
			{MethodID: "flat_rate", MethodTitle: "Flat rate", Total: decimal.RequireFromString("4.50")},
		},
		Meta: map[string]string{"source": "web"},
	}
	require.NoError(t, s.CreateOrder(ctx, order))
	require.NotZero(t, order.ID)

	t.Run("Should load an order with lines and meta", func(t *testing.T) {
		got, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, models.OrderStatusPending, got.Status)
		assert.Equal(t, "jane@example.com", got.Billing.Email)
		assert.Equal(t, "gift", got.CustomerNote)
		assert.True(t, decimal.RequireFromString("19.90").Equal(got.Total))
		require.Len(t, got.ShippingLines, 1)
		assert.Equal(t, "flat_rate", got.ShippingLines[0].MethodID)
		assert.Equal(t, map[string]string{"source": "web"}, got.Meta)
	})

	t.Run("Should return nil for a missing order", func(t *testing.T) {
		got, err := s.GetOrder(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Should apply task mutations", func(t *testing.T) {
		require.NoError(t, s.UpdateOrderMeta(ctx, order.ID, "source", "api"))
		line := order.ShippingLines[0]
		line.MethodID = "free_shipping:2"
		line.MethodTitle = "Free"
		require.NoError(t, s.SaveShippingLine(ctx, &line))
		require.NoError(t, s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted))
		require.NoError(t, s.TrashOrder(ctx, order.ID))

		got, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "api", got.Meta["source"])
		assert.Equal(t, "Free", got.ShippingLines[0].MethodTitle)
		assert.Equal(t, models.OrderStatusCompleted, got.Status)
		assert.True(t, got.Trashed)
	})

	t.Run("Should report missing orders on status update", func(t *testing.T) {
		err := s.UpdateOrderStatus(ctx, 9999, models.OrderStatusFailed)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should list orders by status", func(t *testing.T) {
		other := &models.Order{Billing: models.Address{FirstName: "Al"}}
		require.NoError(t, s.CreateOrder(ctx, other))

		pending, err := s.ListOrders(ctx, string(models.OrderStatusPending))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, other.ID, pending[0].ID)

		all, err := s.ListOrders(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestPostsAndDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	t.Run("Should insert and list posts", func(t *testing.T) {
		post := &models.Post{Title: "Hello", Content: "<p>x</p>", Status: "publish", AuthorID: 1, Categories: []int{1, 2}}
		require.NoError(t, s.InsertPost(ctx, post))
		assert.NotEmpty(t, post.ID)

		posts, err := s.ListPosts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, []int{1, 2}, posts[0].Categories)
	})

	t.Run("Should seed and extend categories and users", func(t *testing.T) {
		_, err := s.AddCategory(ctx, "News")
		require.NoError(t, err)
		_, err = s.AddUser(ctx, "Editor", "editor@example.com")
		require.NoError(t, err)

		cats, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Category{{ID: 1, Name: "Uncategorized"}, {ID: 2, Name: "News"}}, cats)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Editor", users[1].DisplayName)
	})
}

func TestOutboxAndPDR(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	t.Run("Should queue mail in order", func(t *testing.T) {
		_, err := s.EnqueueMail(ctx, "a@example.com", "one", "body")
		require.NoError(t, err)
		_, err = s.EnqueueMail(ctx, "b@example.com", "two", "body")
		require.NoError(t, err)

		msgs, err := s.ListMail(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "a@example.com", msgs[0].To)
		assert.Equal(t, "two", msgs[1].Subject)
	})

	t.Run("Should write and list decision records", func(t *testing.T) {
		_, err := s.WritePDR(ctx, "task.execute", "hash", "success", 7, "sendmail")
		require.NoError(t, err)

		entries, err := s.ListPDR(ctx, 7)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "sendmail", entries[0].Details)
	})
}
