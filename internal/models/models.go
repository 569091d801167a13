// Package models defines the core domain types for ordertasks.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents a lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// OrderStatuses lists every known status in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusOnHold,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusFailed,
	}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Address is a billing or shipping address.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName joins first and last name.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Formatted renders the address as HTML lines separated by <br/>, skipping empty parts.
func (a Address) Formatted() string {
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.Postcode, a.City), " "))
	lines := nonEmpty(a.FullName(), a.Company, a.Address1, a.Address2, cityLine, a.State, a.Country)
	return strings.Join(lines, "<br/>")
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ShippingLine is one shipping item attached to an order.
type ShippingLine struct {
	ID          string          `json:"id"`
	OrderID     int64           `json:"order_id"`
	MethodID    string          `json:"method_id"`
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
}

// Order is the entity tasks run against.
type Order struct {
	ID            int64             `json:"id"`
	Status        OrderStatus       `json:"status"`
	CustomerID    int64             `json:"customer_id"`
	CustomerNote  string            `json:"customer_note,omitempty"`
	Billing       Address           `json:"billing"`
	Shipping      Address           `json:"shipping"`
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
	ShippingLines []ShippingLine    `json:"shipping_lines"`
	Meta          map[string]string `json:"meta,omitempty"`
	Trashed       bool              `json:"trashed"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ShippingMethod is a configured shipping method a line can be switched to.
type ShippingMethod struct {
	ID     string `json:"id" yaml:"id" koanf:"id" validate:"required"`
	Title  string `json:"title" yaml:"title" koanf:"title"`
	RateID string `json:"rate_id" yaml:"rate_id" koanf:"rate_id"`
}

// Rate returns the rate id a line is switched to, falling back to the
// method id when no rate id is configured.
func (m ShippingMethod) Rate() string {
	if m.RateID == "" {
		return m.ID
	}
	return m.RateID
}

// TaskDescriptor is the persisted form of a task.
type TaskDescriptor struct {
	TaskType string         `json:"task_type"`
	Args     map[string]any `json:"args"`
}

// Webhook describes one outbound delivery.
type Webhook struct {
	DeliveryURL string `json:"delivery_url"`
	Secret      string `json:"secret,omitempty"`
	Topic       string `json:"topic"`
}

// Post is a published content entry created by a task.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	AuthorID   int64     `json:"author_id"`
	Categories []int     `json:"categories"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category is a post category offered to the task editor.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a site user that can author posts.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// MailMessage is a queued outbound email.
type MailMessage struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	OrderID    int64     `json:"order_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
