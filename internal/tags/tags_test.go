package tags

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

func tokens(r *Registry, c Context) []string {
	out := make([]string, 0, len(r.entries[c]))
	for tok := range r.entries[c] {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func lookup(r *Registry, c Context, name string) (string, bool) {
	v, ok := r.entries[c][Token(name)]
	return v, ok
}

func TestRegistry_Render(t *testing.T) {
	t.Run("Should substitute registered tokens and keep unknown ones", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterValue(Message, OrderID, "42")
		r.RegisterValue(Message, BillingName, "Jane Doe")

		got := r.Render(Message, "Order {{order id}} for {{billing name}} {{unknown}}")

		assert.Equal(t, "Order 42 for Jane Doe {{unknown}}", got)
	})

	t.Run("Should not rescan resolved values", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterValue(Message, OrderID, "42")
		r.RegisterValue(Message, OrderNote, "see {{order id}}")

		got := r.Render(Message, "{{order note}} / {{order id}}")

		assert.Equal(t, "see {{order id}} / 42", got)
	})

	t.Run("Should keep contexts independent", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterValue(Subject, OrderID, "42")

		assert.Equal(t, "{{order id}}", r.Render(Message, "{{order id}}"))
		assert.Equal(t, "42", r.Render(Subject, "{{order id}}"))
	})

	t.Run("Should overwrite on re-register and ignore missing unregister", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterValue(Name, OrderID, "1")
		r.RegisterValue(Name, OrderID, "2")
		r.Unregister(Name, "never registered")
		r.Unregister(Content, OrderID)

		assert.Equal(t, "2", r.Render(Name, "{{order id}}"))

		r.Unregister(Name, OrderID)
		assert.Equal(t, "{{order id}}", r.Render(Name, "{{order id}}"))
	})

	t.Run("Should resolve once at registration", func(t *testing.T) {
		r := NewRegistry()
		calls := 0
		r.Register(Content, OrderID, func() string {
			calls++
			return "7"
		})

		r.Render(Content, "{{order id}}{{order id}}")
		r.Render(Content, "{{order id}}")

		assert.Equal(t, 1, calls)
	})
}

func TestRegistry_RenderAll(t *testing.T) {
	t.Run("Should render every element with the same context", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterValue(Recipients, AdminEmail, "admin@example.com")

		got := r.RenderAll(Recipients, []string{"{{admin email}}", "x@example.com"})

		assert.Equal(t, []string{"admin@example.com", "x@example.com"}, got)
	})
}

func TestRegistry_Defaults(t *testing.T) {
	order := &models.Order{
		ID:           9,
		CustomerNote: "leave at door",
		Billing: models.Address{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
			Phone: "555", Company: "Acme", City: "Paris", Postcode: "75001",
		},
		Shipping: models.Address{FirstName: "John", LastName: "Roe"},
	}

	t.Run("Should register field defaults only", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterFieldDefaults(Subject, order)

		assert.Equal(t, []string{
			"{{billing company}}", "{{billing name}}", "{{billing phone}}",
			"{{order id}}", "{{shipping name}}",
		}, tokens(r, Subject))
		assert.Equal(t, "9 Jane Doe John Roe", r.Render(Subject, "{{order id}} {{billing name}} {{shipping name}}"))
	})

	t.Run("Should register text defaults with details resolver", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterTextDefaults(Message, order, func() string { return "<table/>" })

		v, ok := lookup(r, Message, OrderDetails)
		require.True(t, ok)
		assert.Equal(t, "<table/>", v)
		assert.Equal(t, "Jane Doe<br/>Acme<br/>75001 Paris", r.Render(Message, "{{billing address}}"))
		assert.Equal(t, "leave at door jane@example.com", r.Render(Message, "{{order note}} {{billing email}}"))
		assert.Len(t, tokens(r, Message), 10)
	})
}
