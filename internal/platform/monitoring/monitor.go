package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Monitor owns the meter provider and the Prometheus registry it exports
// to. Each Monitor has its own registry, so tests can build several.
type Monitor struct {
	registry *promclient.Registry
	provider *metric.MeterProvider
	meter    otelmetric.Meter
	logger   *slog.Logger
}

func New(serviceName string, logger *slog.Logger) (*Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))

	logger.Info("monitoring initialised",
		"event", "monitoring_initialised",
		"module", "internal/platform/monitoring",
		"layer", "platform",
		"service", serviceName,
	)
	return &Monitor{
		registry: registry,
		provider: provider,
		meter:    provider.Meter(serviceName),
		logger:   logger,
	}, nil
}

func (m *Monitor) Meter() otelmetric.Meter {
	return m.meter
}

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
