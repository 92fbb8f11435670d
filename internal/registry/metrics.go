package registry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/enforcerd/internal/registry"

// loadMetrics exports cache behavior to OpenTelemetry. The in-process
// PerformanceMetrics snapshot stays authoritative; these instruments mirror
// it for dashboards.
type loadMetrics struct {
	hits     metric.Int64Counter
	loads    metric.Int64Counter
	duration metric.Float64Histogram
}

func newLoadMetrics(logger *zap.Logger) *loadMetrics {
	meter := otel.Meter(instrumentationName)
	m := &loadMetrics{}
	var err error

	m.hits, err = meter.Int64Counter(
		"enforcerd.registry.cache_hits_total",
		metric.WithDescription("Agent cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		logger.Warn("failed to create cache hit counter", zap.Error(err))
	}

	m.loads, err = meter.Int64Counter(
		"enforcerd.registry.agent_loads_total",
		metric.WithDescription("Agent constructions (cache misses)"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		logger.Warn("failed to create agent load counter", zap.Error(err))
	}

	m.duration, err = meter.Float64Histogram(
		"enforcerd.registry.load_duration_seconds",
		metric.WithDescription("Agent construction duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5),
	)
	if err != nil {
		logger.Warn("failed to create load duration histogram", zap.Error(err))
	}

	return m
}

func (m *loadMetrics) recordHit(ctx context.Context) {
	if m.hits != nil {
		m.hits.Add(ctx, 1)
	}
}

func (m *loadMetrics) recordLoad(ctx context.Context, name string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("agent", name),
		attribute.Bool("success", err == nil),
	}
	if m.loads != nil {
		m.loads.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}
