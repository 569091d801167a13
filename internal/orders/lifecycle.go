// Package orders moves orders between statuses and triggers their tasks.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/fentz26/ordertasks/internal/audit"
	"github.com/fentz26/ordertasks/internal/dispatch"
	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrOrderTrashed  = errors.New("order is trashed")
	ErrTransition    = errors.New("status change not allowed")
)

// next lists the statuses an order may move to from each status. Staying
// in the same status is always allowed and reruns its tasks. Refunded is
// final.
var next = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {
		models.OrderStatusProcessing, models.OrderStatusOnHold, models.OrderStatusCompleted,
		models.OrderStatusCancelled, models.OrderStatusFailed,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusOnHold, models.OrderStatusCompleted, models.OrderStatusCancelled,
		models.OrderStatusRefunded, models.OrderStatusFailed,
	},
	models.OrderStatusOnHold: {
		models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusCompleted,
		models.OrderStatusCancelled, models.OrderStatusFailed,
	},
	models.OrderStatusCompleted: {models.OrderStatusProcessing, models.OrderStatusRefunded},
	models.OrderStatusCancelled: {models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusOnHold},
	models.OrderStatusFailed: {
		models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusOnHold,
		models.OrderStatusCancelled,
	},
	models.OrderStatusRefunded: {},
}

// Repository is the order persistence the lifecycle needs.
type Repository interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
}

// Dispatcher runs the tasks of an order's current status.
type Dispatcher interface {
	Dispatch(ctx context.Context, order *models.Order) (*dispatch.Report, error)
}

// Transition is the outcome of a status change.
type Transition struct {
	Order     *models.Order      `json:"order"`
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to"`
	Reentered bool               `json:"reentered"`
	Report    *dispatch.Report   `json:"report"`
}

// Lifecycle validates status changes with a state machine, persists them
// and dispatches the new status's tasks.
type Lifecycle struct {
	repo       Repository
	dispatcher Dispatcher
	pdr        *audit.PDRWriter
}

func NewLifecycle(repo Repository, d Dispatcher, pdr *audit.PDRWriter) *Lifecycle {
	return &Lifecycle{repo: repo, dispatcher: d, pdr: pdr}
}

func newStatusFSM(ctx context.Context, current models.OrderStatus) *fsm.FSM {
	sources := make(map[models.OrderStatus][]string, len(next))
	for from, targets := range next {
		for _, to := range targets {
			sources[to] = append(sources[to], string(from))
		}
	}
	events := make(fsm.Events, 0, len(next))
	for _, s := range models.OrderStatuses() {
		events = append(events, fsm.EventDesc{
			Name: string(s),
			Src:  append(sources[s], string(s)),
			Dst:  string(s),
		})
	}
	log := logger.FromContext(ctx)
	return fsm.NewFSM(string(current), events, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			log.Debug("Order status changed", "from", e.Src, "to", e.Dst)
		},
	})
}

// Transition sets order id to status and runs the tasks configured for it.
// Entering the current status again runs its tasks again. Task failures
// are returned alongside a non-nil Transition.
func (l *Lifecycle) Transition(ctx context.Context, id int64, status models.OrderStatus) (*Transition, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	order, err := l.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	if order.Trashed {
		return nil, fmt.Errorf("order %d: %w", id, ErrOrderTrashed)
	}

	t := &Transition{From: order.Status, To: status}
	machine := newStatusFSM(ctx, order.Status)
	if err := machine.Event(ctx, string(status)); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrTransition, order.Status, status)
		}
		t.Reentered = true
	}

	if err := l.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = models.OrderStatus(machine.Current())
	l.record(ctx, t, id)

	report, dispatchErr := l.dispatcher.Dispatch(ctx, order)
	t.Report = report

	if fresh, err := l.repo.GetOrder(ctx, id); err == nil && fresh != nil {
		order = fresh
	}
	t.Order = order
	return t, dispatchErr
}

func (l *Lifecycle) record(ctx context.Context, t *Transition, id int64) {
	if l.pdr == nil {
		return
	}
	details := fmt.Sprintf("%s -> %s", t.From, t.To)
	if _, err := l.pdr.Record(ctx, audit.ActionOrderStatus, t, "success", id, details); err != nil {
		logger.FromContext(ctx).Warn("Failed to write audit record", "error", err)
	}
}
