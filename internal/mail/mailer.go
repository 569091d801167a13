// Package mail renders order mail and queues it in the outbox.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

const wrapTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{ .Subject }}</title></head>
<body>
<div id="wrapper">
<h1>{{ .Subject }}</h1>
<div id="body">{{ .Body }}</div>
<p id="footer">{{ .SiteName | default "ordertasks" }}</p>
</div>
</body>
</html>`

const detailsTemplate = `<h2>Order #{{ .Order.ID }} ({{ .Order.CreatedAt | date "2006-01-02" }})</h2>
<table class="order-details">
{{- range .Order.ShippingLines }}
<tr><th>{{ .MethodTitle | default .MethodID }}</th><td>{{ .Total.StringFixed 2 }} {{ $.Order.Currency | upper }}</td></tr>
{{- end }}
<tr><th>Total</th><td>{{ .Order.Total.StringFixed 2 }} {{ .Order.Currency | upper }}</td></tr>
</table>`

// Outbox queues outbound messages.
type Outbox interface {
	EnqueueMail(ctx context.Context, to, subject, body string) (*models.MailMessage, error)
}

// Mailer renders the shared mail parts and queues messages.
type Mailer struct {
	outbox   Outbox
	siteName string
	wrap     *template.Template
	details  *template.Template
}

func New(outbox Outbox, siteName string) *Mailer {
	return &Mailer{
		outbox:   outbox,
		siteName: siteName,
		wrap:     template.Must(template.New("wrap").Funcs(sprig.FuncMap()).Parse(wrapTemplate)),
		details:  template.Must(template.New("details").Funcs(sprig.FuncMap()).Parse(detailsTemplate)),
	}
}

// Send queues one message.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := m.outbox.EnqueueMail(ctx, to, subject, body)
	if err != nil {
		return fmt.Errorf("queue mail: %w", err)
	}
	logger.FromContext(ctx).Debug("Mail queued", "id", msg.ID, "to", to)
	return nil
}

// WrapMessage places an already sanitized HTML body in the mail layout.
func (m *Mailer) WrapMessage(subject, body string) string {
	out, err := render(m.wrap, map[string]any{
		"Subject":  subject,
		"Body":     template.HTML(body),
		"SiteName": m.siteName,
	})
	if err != nil {
		logger.GetDefault().Error("Failed to render mail layout", "error", err)
		return body
	}
	return out
}

// OrderDetails renders the order summary block.
func (m *Mailer) OrderDetails(order *models.Order) string {
	out, err := render(m.details, map[string]any{"Order": order})
	if err != nil {
		logger.GetDefault().Error("Failed to render order details", "order_id", order.ID, "error", err)
		return ""
	}
	return out
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
