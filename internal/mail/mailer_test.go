package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

type memOutbox struct {
	msgs []models.MailMessage
	err  error
}

func (o *memOutbox) EnqueueMail(_ context.Context, to, subject, body string) (*models.MailMessage, error) {
	if o.err != nil {
		return nil, o.err
	}
	msg := models.MailMessage{ID: "m1", To: to, Subject: subject, Body: body}
	o.msgs = append(o.msgs, msg)
	return &msg, nil
}

func TestMailer(t *testing.T) {
	t.Run("Should wrap a trusted body and escape the subject", func(t *testing.T) {
		m := New(&memOutbox{}, "Shop")

		out := m.WrapMessage("Tom & Jerry", "<p>Hello</p>")

		assert.Contains(t, out, "<h1>Tom &amp; Jerry</h1>")
		assert.Contains(t, out, `<div id="body"><p>Hello</p></div>`)
		assert.Contains(t, out, "Shop")
	})

	t.Run("Should fall back to a default site name", func(t *testing.T) {
		out := New(&memOutbox{}, "").WrapMessage("s", "b")

		assert.Contains(t, out, "ordertasks")
	})

	t.Run("Should render order details with shipping lines", func(t *testing.T) {
		order := &models.Order{
			ID:        5,
			Currency:  "eur",
			Total:     decimal.RequireFromString("19.9"),
			CreatedAt: time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
			ShippingLines: []models.ShippingLine{
				{MethodID: "flat_rate", Total: decimal.RequireFromString("4.5")},
			},
		}

		out := New(&memOutbox{}, "").OrderDetails(order)

		assert.Contains(t, out, "Order #5 (2024-06-02)")
		assert.Contains(t, out, "<th>flat_rate</th><td>4.50 EUR</td>")
		assert.Contains(t, out, "<th>Total</th><td>19.90 EUR</td>")
	})

	t.Run("Should queue sent mail", func(t *testing.T) {
		outbox := &memOutbox{}

		require.NoError(t, New(outbox, "").Send(t.Context(), "a@example.com", "subj", "body"))

		require.Len(t, outbox.msgs, 1)
		assert.Equal(t, "a@example.com", outbox.msgs[0].To)
	})

	t.Run("Should surface outbox errors", func(t *testing.T) {
		err := New(&memOutbox{err: errors.New("full")}, "").Send(t.Context(), "a@example.com", "s", "b")

		assert.Error(t, err)
	})
}
