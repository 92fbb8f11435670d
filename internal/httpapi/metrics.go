package httpapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus instrumentation for the HTTP API. Each server
// carries its own registry so tests never collide on the global default.
type Metrics struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	requestsTotal *prometheus.CounterVec
	requestDur    *prometheus.HistogramVec
	activeReqs    prometheus.Gauge

	enforcementViolations prometheus.Counter
	enforcementFailures   prometheus.Counter
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		logger:   logger,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enforcerd_http_requests_total",
			Help: "Total HTTP requests by method, endpoint, and status code.",
		}, []string{"method", "endpoint", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enforcerd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and endpoint.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "endpoint"}),
		activeReqs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enforcerd_http_active_requests",
			Help: "Number of currently active HTTP requests.",
		}),
		enforcementViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enforcerd_http_violations_total",
			Help: "Total violations found by enforcement runs over the HTTP API.",
		}),
		enforcementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enforcerd_http_agent_failures_total",
			Help: "Total isolated agent failures in enforcement runs over the HTTP API.",
		}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDur,
		m.activeReqs,
		m.enforcementViolations,
		m.enforcementFailures,
	)

	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordEnforcement counts the outcome of one enforcement run.
func (m *Metrics) RecordEnforcement(violations, failures int) {
	m.enforcementViolations.Add(float64(violations))
	m.enforcementFailures.Add(float64(failures))
}

// Middleware returns an Echo middleware recording request metrics. The route
// template, not the raw URI, labels the series to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.activeReqs.Inc()

			err := next(c)

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "/"
			}
			method := c.Request().Method
			status := c.Response().Status

			m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
			m.requestDur.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
			m.activeReqs.Dec()

			return err
		}
	}
}
