package tasks

import (
	"context"
	"fmt"
	"html"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/tags"
)

// Recipient is one mail target. Value is an email address or a placeholder
// expression resolved at send time.
type Recipient struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SendmailArgs sends one mail per recipient.
type SendmailArgs struct {
	Subject    string      `json:"subject"`
	Recipients []Recipient `json:"recipients"`
	Message    string      `json:"message" jsonschema:"description=Rich HTML body"`
}

func (SendmailArgs) Type() Type { return TypeSendmail }

func (a SendmailArgs) raw() RawArgs {
	recipients := make([]any, len(a.Recipients))
	for i, r := range a.Recipients {
		recipients[i] = map[string]any{"label": r.Label, "value": r.Value}
	}
	return RawArgs{
		"subject":    a.Subject,
		"recipients": recipients,
		"message":    a.Message,
	}
}

func sanitizeSendmail(raw RawArgs) SendmailArgs {
	out := SendmailArgs{
		Subject:    sanitizeText(raw["subject"]),
		Recipients: []Recipient{},
		Message:    sanitizeHTML(raw["message"]),
	}
	for _, item := range toList(raw["recipients"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label, hasLabel := m["label"]
		value, hasValue := m["value"]
		if !hasLabel || !hasValue {
			continue
		}
		r := Recipient{Label: sanitizeText(label)}
		r.Value = sanitizeRecipientValue(toString(value))
		if r.Label == "" || r.Value == "" {
			continue
		}
		out.Recipients = append(out.Recipients, r)
	}
	return out
}

// sanitizeRecipientValue keeps a tag expression that is still one after
// cleaning, and otherwise requires a valid email.
func sanitizeRecipientValue(v string) string {
	if isTagExpr(v) {
		if clean := sanitizeText(v); isTagExpr(clean) {
			return clean
		}
		return ""
	}
	return sanitizeEmail(v)
}

func escapeSendmail(a SendmailArgs) DisplayArgs {
	recipients := make([]map[string]string, len(a.Recipients))
	for i, r := range a.Recipients {
		recipients[i] = map[string]string{
			"label": html.EscapeString(r.Label),
			"value": escapeAttr(r.Value),
		}
	}
	return DisplayArgs{
		"subject":    a.Subject,
		"recipients": recipients,
		"message":    a.Message,
	}
}

func executeSendmail(ctx context.Context, env *Env, order *models.Order, a SendmailArgs) error {
	if env.Mail == nil {
		return fmt.Errorf("mailer: %w", ErrMissingCollaborator)
	}
	reg := tags.NewRegistry()
	reg.RegisterValue(tags.Recipients, tags.AdminEmail, env.Settings.AdminEmail)
	reg.RegisterValue(tags.Recipients, tags.BillingEmail, order.Billing.Email)
	reg.RegisterFieldDefaults(tags.Subject, order)
	reg.RegisterTextDefaults(tags.Message, order, func() string { return env.Mail.OrderDetails(order) })

	values := make([]string, len(a.Recipients))
	for i, r := range a.Recipients {
		values[i] = r.Value
	}
	recipients := reg.RenderAll(tags.Recipients, values)
	subject := reg.Render(tags.Subject, a.Subject)
	message := reg.Render(tags.Message, a.Message)
	if f := env.Filters.SendmailMessage; f != nil {
		message = f(ctx, message, order)
	}
	body := env.Mail.WrapMessage(subject, message)

	log := logger.FromContext(ctx)
	for _, to := range recipients {
		if to == "" {
			log.Debug("Skipping empty recipient", "order_id", order.ID)
			continue
		}
		if err := env.Mail.Send(ctx, to, subject, body); err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
	}
	return nil
}
