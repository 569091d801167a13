package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/ordertasks/internal/audit"
	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/taskconfig"
	"github.com/fentz26/ordertasks/internal/tasks"
)

// Outcome is the result of one task in a batch.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// Result describes one descriptor of the batch.
type Result struct {
	Index    int     `json:"index"`
	TaskType string  `json:"task_type"`
	Outcome  Outcome `json:"outcome"`
	Error    string  `json:"error,omitempty"`
}

// Report summarizes a dispatch.
type Report struct {
	OrderID  int64              `json:"order_id"`
	Status   models.OrderStatus `json:"status"`
	Results  []Result           `json:"results"`
	Deferred []Result           `json:"deferred"`
}

// Dispatcher runs the configured tasks of an order's current status.
type Dispatcher struct {
	tasks   taskconfig.Store
	env     *tasks.Env
	pdr     *audit.PDRWriter
	metrics *Metrics
	config  *Config
}

type Option func(*Dispatcher)

func WithAudit(w *audit.PDRWriter) Option { return func(d *Dispatcher) { d.pdr = w } }

func WithMetrics(m *Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

func WithConfig(cfg *Config) Option {
	return func(d *Dispatcher) {
		if cfg != nil {
			d.config = cfg
		}
	}
}

// New creates a dispatcher reading lists from store and running tasks in env.
func New(store taskconfig.Store, env *tasks.Env, opts ...Option) *Dispatcher {
	d := &Dispatcher{tasks: store, env: env, config: DefaultConfig()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the task list of order.Status in order, then the deferred
// actions the tasks returned. Every failure is collected; the returned error
// joins them. Malformed descriptors are logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, order *models.Order) (*Report, error) {
	log := logger.FromContext(ctx).With("order_id", order.ID, "status", order.Status)
	ctx = logger.ContextWithLogger(ctx, log)

	list, err := d.tasks.GetTaskList(ctx, string(order.Status))
	if err != nil {
		return nil, fmt.Errorf("get task list: %w", err)
	}
	report := &Report{
		OrderID:  order.ID,
		Status:   order.Status,
		Results:  make([]Result, 0, len(list)),
		Deferred: []Result{},
	}
	if len(list) == 0 {
		log.Debug("No tasks configured")
		return report, nil
	}

	var (
		errs    []error
		pending []tasks.PendingAction
		stopped bool
	)
	for i, desc := range list {
		res := Result{Index: i, TaskType: desc.TaskType}
		if stopped {
			res.Outcome = OutcomeSkipped
			res.Error = "previous task failed"
			report.Results = append(report.Results, res)
			continue
		}
		task, err := tasks.FromDescriptor(ctx, desc)
		if err != nil {
			log.Warn("Skipping task descriptor", "index", i, "task_type", desc.TaskType, "error", err)
			res.Outcome = OutcomeSkipped
			res.Error = err.Error()
			d.record(ctx, audit.ActionTaskSkipped, desc, res.Outcome, order.ID, desc.TaskType)
			report.Results = append(report.Results, res)
			continue
		}

		start := time.Now()
		actions, err := task.Execute(ctx, d.env, order)
		took := time.Since(start)
		if err != nil {
			log.Error("Task failed", "index", i, "task_type", desc.TaskType, "error", err)
			res.Outcome = OutcomeError
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("task %d: %w", i, err))
			stopped = d.config.StopOnError
		} else {
			log.Debug("Task executed", "index", i, "task_type", desc.TaskType, "took", took)
			res.Outcome = OutcomeSuccess
			pending = append(pending, actions...)
		}
		d.metrics.recordTask(ctx, desc.TaskType, res.Outcome, took)
		d.record(ctx, audit.ActionTaskExecute, task.Descriptor(), res.Outcome, order.ID, desc.TaskType)
		report.Results = append(report.Results, res)
	}

	for i, action := range pending {
		res := Result{Index: i, TaskType: action.Name, Outcome: OutcomeSuccess}
		if err := action.Run(ctx); err != nil {
			log.Error("Deferred action failed", "action", action.Name, "error", err)
			res.Outcome = OutcomeError
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", action.Name, err))
		}
		d.metrics.recordDeferred(ctx, res.Outcome)
		d.record(ctx, audit.ActionTaskDeferred, action.Name, res.Outcome, order.ID, action.Name)
		report.Deferred = append(report.Deferred, res)
	}

	log.Info("Dispatched tasks", "tasks", len(list), "deferred", len(pending), "errors", len(errs))
	return report, errors.Join(errs...)
}

func (d *Dispatcher) record(ctx context.Context, action string, inputs any, outcome Outcome, orderID int64, details string) {
	if d.pdr == nil {
		return
	}
	if _, err := d.pdr.Record(ctx, action, inputs, string(outcome), orderID, details); err != nil {
		logger.FromContext(ctx).Warn("Failed to write audit record", "action", action, "error", err)
	}
}
