package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments task execution.
type Metrics struct {
	executed metric.Int64Counter
	deferred metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics registers the dispatcher instruments on meter. A nil meter
// yields metrics that record nothing.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	if meter == nil {
		return m, nil
	}
	var err error
	if m.executed, err = meter.Int64Counter(
		"ordertasks_tasks_executed_total",
		metric.WithDescription("Tasks executed by type and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create executed counter: %w", err)
	}
	if m.deferred, err = meter.Int64Counter(
		"ordertasks_deferred_actions_total",
		metric.WithDescription("Deferred actions run after a batch by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create deferred counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram(
		"ordertasks_task_duration_seconds",
		metric.WithDescription("Task execution duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return m, nil
}

func (m *Metrics) recordTask(ctx context.Context, taskType string, outcome Outcome, took time.Duration) {
	if m == nil || m.executed == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("outcome", string(outcome)),
	)
	m.executed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, took.Seconds(), attrs)
}

func (m *Metrics) recordDeferred(ctx context.Context, outcome Outcome) {
	if m == nil || m.deferred == nil {
		return
	}
	m.deferred.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}
