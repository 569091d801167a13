package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/fentz26/ordertasks/internal/models"
)

// Mailer sends mail and renders the shared mail template parts.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	WrapMessage(subject, body string) string
	OrderDetails(order *models.Order) string
}

// WebhookDeliverer posts a signed payload to a webhook.
type WebhookDeliverer interface {
	Deliver(ctx context.Context, hook models.Webhook, payload any) error
}

type PostInserter interface {
	InsertPost(ctx context.Context, post *models.Post) error
}

// OrderWriter holds the order mutations tasks are allowed to make.
type OrderWriter interface {
	UpdateOrderMeta(ctx context.Context, orderID int64, key, value string) error
	SaveShippingLine(ctx context.Context, line *models.ShippingLine) error
	TrashOrder(ctx context.Context, orderID int64) error
}

// OptionStore persists small named values such as the log folder id.
type OptionStore interface {
	GetOption(ctx context.Context, key string) (string, error)
	SetOption(ctx context.Context, key, value string) error
}

// Filter rewrites rendered content before it is used.
type Filter func(ctx context.Context, content string, order *models.Order) string

// Settings are install-wide values tasks read.
type Settings struct {
	UploadsDir      string
	DefaultAuthorID int64
	AdminEmail      string
	ShippingMethods []models.ShippingMethod
}

// Filters are optional hooks on rendered content.
type Filters struct {
	SendmailMessage   Filter
	CreatePostContent Filter
}

// Env carries the collaborators a task may touch. Nil collaborators are
// only an error for the kinds that need them.
type Env struct {
	Mail     Mailer
	Webhooks WebhookDeliverer
	Posts    PostInserter
	Orders   OrderWriter
	Options  OptionStore
	FS       afero.Fs
	Now      func() time.Time
	NewID    func() string

	Settings Settings
	Filters  Filters
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}

func (e *Env) fs() afero.Fs {
	if e.FS != nil {
		return e.FS
	}
	return afero.NewOsFs()
}
