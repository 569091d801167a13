package tui

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the ordertasks API.
type Client struct {
	http *resty.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultClientTimeout).
			SetHeader("Content-Type", "application/json"),
	}
}

type apiError struct {
	Error string `json:"error"`
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode(), e.Error)
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// CheckHealth checks if the daemon is healthy.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	var health struct {
		OK bool `json:"ok"`
	}
	resp, err := c.http.R().SetContext(ctx).SetResult(&health).Get("/health")
	if err != nil {
		return false, err
	}
	return resp.IsSuccess() && health.OK, nil
}

// TaskTypes returns the known task types keyed by type.
func (c *Client) TaskTypes(ctx context.Context) (map[string]string, error) {
	var infos []struct {
		Type  string `json:"task_type"`
		Label string `json:"label"`
	}
	if err := check(c.http.R().SetContext(ctx).SetResult(&infos).SetError(&apiError{}).Get("/task-types")); err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(infos))
	for _, info := range infos {
		labels[info.Type] = info.Label
	}
	return labels, nil
}

// TaskList fetches the escaped task list of status.
func (c *Client) TaskList(ctx context.Context, status string) ([]models.TaskDescriptor, error) {
	var list []models.TaskDescriptor
	err := check(c.http.R().
		SetContext(ctx).
		SetPathParam("status", status).
		SetQueryParam("view", "display").
		SetResult(&list).
		SetError(&apiError{}).
		Get("/statuses/{status}/tasks"))
	return list, err
}

// Orders lists orders, optionally filtered by status.
func (c *Client) Orders(ctx context.Context, status string) ([]models.Order, error) {
	var list []models.Order
	req := c.http.R().SetContext(ctx).SetResult(&list).SetError(&apiError{})
	if status != "" {
		req.SetQueryParam("status", status)
	}
	err := check(req.Get("/orders"))
	return list, err
}

// SetOrderStatus moves an order to status and returns the task report.
func (c *Client) SetOrderStatus(ctx context.Context, id int64, status string) (*orders.Transition, error) {
	var tr orders.Transition
	err := check(c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(map[string]string{"status": status}).
		SetResult(&tr).
		SetError(&apiError{}).
		Post("/orders/{id}/status"))
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// Log returns the task log file.
func (c *Client) Log(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).SetError(&apiError{}).Get("/log")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return resp.String(), nil
}

// BaseURL returns the API address.
func (c *Client) BaseURL() string {
	if u, err := url.Parse(c.http.BaseURL); err == nil {
		return u.Host
	}
	return c.http.BaseURL
}
