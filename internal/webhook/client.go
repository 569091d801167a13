// Package webhook delivers signed order payloads to external endpoints.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

const (
	HeaderTopic      = "X-Webhook-Topic"
	HeaderResource   = "X-Webhook-Resource"
	HeaderEvent      = "X-Webhook-Event"
	HeaderSignature  = "X-Webhook-Signature"
	HeaderDeliveryID = "X-Webhook-Delivery-ID"
)

// ErrDeliveryRejected is returned when the endpoint answers with a non-2xx status.
var ErrDeliveryRejected = errors.New("webhook delivery rejected")

// Config holds transport settings.
type Config struct {
	Timeout   time.Duration `yaml:"timeout" koanf:"timeout" validate:"min=0"`
	UserAgent string        `yaml:"user_agent" koanf:"user_agent"`
}

func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second, UserAgent: "ordertasks-webhook"}
}

// Client posts payloads once, without retries.
type Client struct {
	http *resty.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	return &Client{
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", cfg.UserAgent),
	}
}

// Deliver posts payload as JSON to hook.DeliveryURL. The body is signed
// with hook.Secret when one is set.
func (c *Client) Deliver(ctx context.Context, hook models.Webhook, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	resource, event, _ := strings.Cut(hook.Topic, ".")
	deliveryID := uuid.New().String()

	req := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderTopic, hook.Topic).
		SetHeader(HeaderResource, resource).
		SetHeader(HeaderEvent, event).
		SetHeader(HeaderDeliveryID, deliveryID).
		SetBody(body)
	if hook.Secret != "" {
		req.SetHeader(HeaderSignature, Sign(body, hook.Secret))
	}

	log := logger.FromContext(ctx)
	resp, err := req.Post(hook.DeliveryURL)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.Warn("Webhook delivery rejected", "url", hook.DeliveryURL, "status", resp.StatusCode(), "delivery_id", deliveryID)
		return fmt.Errorf("%w: %s answered %d", ErrDeliveryRejected, hook.DeliveryURL, resp.StatusCode())
	}
	log.Debug("Webhook delivered", "url", hook.DeliveryURL, "topic", hook.Topic, "delivery_id", deliveryID)
	return nil
}

// Sign returns the base64 HMAC-SHA256 of body keyed with secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
