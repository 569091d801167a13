package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fentz26/ordertasks/internal/models"
)

// MockMailer implements Mailer for testing
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func (m *MockMailer) WrapMessage(subject, body string) string {
	args := m.Called(subject, body)
	return args.String(0)
}

func (m *MockMailer) OrderDetails(order *models.Order) string {
	args := m.Called(order)
	return args.String(0)
}

// MockWebhooks implements WebhookDeliverer for testing
type MockWebhooks struct {
	mock.Mock
}

func (m *MockWebhooks) Deliver(ctx context.Context, hook models.Webhook, payload any) error {
	args := m.Called(ctx, hook, payload)
	return args.Error(0)
}

type memOptions struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemOptions() *memOptions {
	return &memOptions{values: make(map[string]string)}
}

func (o *memOptions) GetOption(_ context.Context, key string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.values[key], nil
}

func (o *memOptions) SetOption(_ context.Context, key, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
	return nil
}

type memOrders struct {
	meta    map[int64]map[string]string
	lines   []models.ShippingLine
	trashed map[int64]bool
}

func newMemOrders() *memOrders {
	return &memOrders{
		meta:    make(map[int64]map[string]string),
		trashed: make(map[int64]bool),
	}
}

func (o *memOrders) UpdateOrderMeta(_ context.Context, orderID int64, key, value string) error {
	if o.trashed[orderID] {
		return fmt.Errorf("order %d is trashed", orderID)
	}
	if o.meta[orderID] == nil {
		o.meta[orderID] = make(map[string]string)
	}
	o.meta[orderID][key] = value
	return nil
}

func (o *memOrders) SaveShippingLine(_ context.Context, line *models.ShippingLine) error {
	o.lines = append(o.lines, *line)
	return nil
}

func (o *memOrders) TrashOrder(_ context.Context, orderID int64) error {
	o.trashed[orderID] = true
	return nil
}

type memPosts struct {
	posts []models.Post
}

func (p *memPosts) InsertPost(_ context.Context, post *models.Post) error {
	post.ID = fmt.Sprintf("post-%d", len(p.posts)+1)
	p.posts = append(p.posts, *post)
	return nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:         42,
		Status:     models.OrderStatusCompleted,
		CustomerID: 0,
		Billing: models.Address{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Phone:     "555-0100",
		},
		Shipping: models.Address{FirstName: "Jane", LastName: "Doe", City: "Lyon"},
	}
}
