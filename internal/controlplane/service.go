// Package controlplane provides the HTTP admin API and its service layer.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/fentz26/ordertasks/internal/audit"
	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
	"github.com/fentz26/ordertasks/internal/store"
	"github.com/fentz26/ordertasks/internal/taskconfig"
	"github.com/fentz26/ordertasks/internal/tasks"
)

// Service holds the admin operations behind the HTTP API.
type Service struct {
	store     *store.Store
	lists     taskconfig.Store
	lifecycle *orders.Lifecycle
	pdr       *audit.PDRWriter
	settings  tasks.Settings
	fs        afero.Fs
}

// NewService creates a new control plane service.
func NewService(
	s *store.Store,
	lists taskconfig.Store,
	lifecycle *orders.Lifecycle,
	pdr *audit.PDRWriter,
	settings tasks.Settings,
	fs afero.Fs,
) *Service {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Service{
		store:     s,
		lists:     lists,
		lifecycle: lifecycle,
		pdr:       pdr,
		settings:  settings,
		fs:        fs,
	}
}

// --- Task lists ---

// TaskTypes describes every known task type.
func (s *Service) TaskTypes() []tasks.Info {
	return tasks.Catalog()
}

// TaskList returns the stored list of status. With display set, the args
// are escaped for output instead of returned raw.
func (s *Service) TaskList(ctx context.Context, status string, display bool) ([]models.TaskDescriptor, error) {
	if !models.OrderStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	list, err := s.lists.GetTaskList(ctx, status)
	if err != nil {
		return nil, err
	}
	if !display {
		return list, nil
	}
	out := make([]models.TaskDescriptor, 0, len(list))
	for _, desc := range list {
		task, err := tasks.FromDescriptor(ctx, desc)
		if err != nil {
			continue
		}
		out = append(out, models.TaskDescriptor{TaskType: desc.TaskType, Args: task.Escaped()})
	}
	return out, nil
}

// SaveTaskList sanitizes list and replaces the stored list of status.
func (s *Service) SaveTaskList(ctx context.Context, status string, list []models.TaskDescriptor) ([]models.TaskDescriptor, error) {
	if !models.OrderStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	clean := make([]models.TaskDescriptor, 0, len(list))
	for i, desc := range list {
		task, err := tasks.FromDescriptor(ctx, desc)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrInvalidInput, i, err)
		}
		clean = append(clean, task.Descriptor())
	}
	if err := s.lists.SetTaskList(ctx, status, clean); err != nil {
		return nil, err
	}
	if s.pdr != nil {
		if _, err := s.pdr.Record(ctx, audit.ActionTaskListUpdate, clean, "success", 0, status); err != nil {
			logger.FromContext(ctx).Warn("Failed to write audit record", "error", err)
		}
	}
	return clean, nil
}

// --- Orders ---

// CreateOrder stores a new order. Creating an order does not run tasks.
func (s *Service) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if !order.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, order.Status)
	}
	order.ID = 0
	order.Trashed = false
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, order.ID)
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return order, nil
}

// ListOrders returns orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	return s.store.ListOrders(ctx, status)
}

// SetOrderStatus moves an order to status and runs its tasks.
func (s *Service) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*orders.Transition, error) {
	return s.lifecycle.Transition(ctx, id, status)
}

// OrderAudit returns the audit trail of an order.
func (s *Service) OrderAudit(ctx context.Context, id int64) ([]models.PDREntry, error) {
	return s.store.ListPDR(ctx, id)
}

// --- Settings ---

// ReadLog returns the content of the task log file.
func (s *Service) ReadLog(ctx context.Context) (string, error) {
	path, err := tasks.LogFilePath(ctx, s.store, s.settings.UploadsDir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("log file: %w", ErrNotFound)
	}
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("log file: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read log file: %w", err)
	}
	return string(data), nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// AddCategory creates a post category the createpost editor can offer.
func (s *Service) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	return s.store.AddCategory(ctx, name)
}

// AddUser creates a user that can author posts.
func (s *Service) AddUser(ctx context.Context, displayName, email string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	return s.store.AddUser(ctx, displayName, strings.TrimSpace(email))
}

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) ShippingMethods() []models.ShippingMethod {
	return s.settings.ShippingMethods
}

func (s *Service) Posts(ctx context.Context, limit int) ([]models.Post, error) {
	return s.store.ListPosts(ctx, limit)
}

// Outbox returns queued mail.
func (s *Service) Outbox(ctx context.Context) ([]models.MailMessage, error) {
	return s.store.ListMail(ctx)
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
