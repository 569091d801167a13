package tasks

import (
	"context"
	"fmt"

	"github.com/fentz26/ordertasks/internal/models"
)

// SendWebhookArgs delivers the order to an external URL.
type SendWebhookArgs struct {
	DeliveryURL string `json:"delivery_url" jsonschema:"format=uri"`
	Secret      string `json:"secret"`
}

func (SendWebhookArgs) Type() Type { return TypeSendWebhook }

func (a SendWebhookArgs) raw() RawArgs {
	return RawArgs{"delivery_url": a.DeliveryURL, "secret": a.Secret}
}

// WebhookTopic is the topic a delivery for order is sent under.
func WebhookTopic(order *models.Order) string {
	return "order-status." + string(order.Status)
}

func executeSendWebhook(ctx context.Context, env *Env, order *models.Order, a SendWebhookArgs) error {
	if a.DeliveryURL == "" {
		return nil
	}
	if env.Webhooks == nil {
		return fmt.Errorf("webhook transport: %w", ErrMissingCollaborator)
	}
	hook := models.Webhook{
		DeliveryURL: a.DeliveryURL,
		Secret:      a.Secret,
		Topic:       WebhookTopic(order),
	}
	if err := env.Webhooks.Deliver(ctx, hook, order); err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	return nil
}
