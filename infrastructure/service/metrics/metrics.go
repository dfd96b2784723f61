package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendora/vendora/application/port/outbound"
)

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitDecisions  *prometheus.CounterVec
	changeRecords       *prometheus.CounterVec
	productMutations    *prometheus.CounterVec
}

var _ outbound.MutationMetrics = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendora_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vendora_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		rateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendora_rate_limit_decisions_total",
				Help: "Rate limiter decisions by tier and outcome",
			},
			[]string{"tier", "allowed"},
		),
		changeRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendora_change_records_total",
				Help: "Change records appended to the audit log",
			},
			[]string{"action"},
		),
		productMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendora_product_mutations_total",
				Help: "Product mutations by operation and status",
			},
			[]string{"operation", "status"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RateLimitDecision(tier string, allowed bool) {
	m.rateLimitDecisions.WithLabelValues(tier, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) ChangeRecorded(action string) {
	m.changeRecords.WithLabelValues(action).Inc()
}

func (m *Metrics) MutationCompleted(operation string, status string) {
	m.productMutations.WithLabelValues(operation, status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
