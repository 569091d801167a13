// Package metrics wires an OpenTelemetry meter to a Prometheus registry.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/fentz26/ordertasks/internal/logger"
)

const meterName = "ordertasks"

// Service owns the meter provider and the registry served on /metrics.
type Service struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	registry *prom.Registry
	enabled  bool
}

// NewDisabled returns a service backed by a no-op meter.
func NewDisabled() *Service {
	return &Service{meter: noop.NewMeterProvider().Meter(meterName)}
}

// New creates a service with a Prometheus exporter, or a disabled one when
// enabled is false.
func New(ctx context.Context, enabled bool) (*Service, error) {
	log := logger.FromContext(ctx)
	if !enabled {
		log.Debug("Metrics disabled, using no-op meter")
		return NewDisabled(), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	log.Info("Metrics initialized")
	return &Service{
		meter:    provider.Meter(meterName),
		provider: provider,
		registry: registry,
		enabled:  true,
	}, nil
}

// NewWithFallback is New, degrading to a disabled service on error.
func NewWithFallback(ctx context.Context, enabled bool) *Service {
	s, err := New(ctx, enabled)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize metrics, using no-op meter", "error", err)
		return NewDisabled()
	}
	return s
}

func (s *Service) Meter() metric.Meter { return s.meter }

func (s *Service) Enabled() bool { return s.enabled }

// Handler serves the Prometheus exposition format.
func (s *Service) Handler() http.Handler {
	if !s.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// SetAsGlobal installs the provider as the global OpenTelemetry provider.
func (s *Service) SetAsGlobal() {
	if s.provider != nil {
		otel.SetMeterProvider(s.provider)
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}
