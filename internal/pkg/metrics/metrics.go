// Package metrics holds the Prometheus collectors of the orchestrator.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

type Metrics struct {
	registry *prometheus.Registry

	transitions      *prometheus.CounterVec
	ledgerDuplicates prometheus.Counter
	notifications    *prometheus.CounterVec
	rateLimitDenials *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	droppedEvents    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Committed state transitions by entity and target state",
			},
			[]string{"entity", "to"},
		),
		ledgerDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_ledger_duplicates_total",
			Help:      "Payment events rejected as already seen",
		}),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification send attempts by outcome",
			},
			[]string{"outcome"},
		),
		rateLimitDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_denials_total",
				Help:      "Requests denied by the rate limiter",
			},
			[]string{"bucket"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_bus_dropped_total",
			Help:      "Domain events dropped because the bus buffer was full",
		}),
	}

	m.registry.MustRegister(
		m.transitions,
		m.ledgerDuplicates,
		m.notifications,
		m.rateLimitDenials,
		m.httpRequests,
		m.httpDuration,
		m.droppedEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordTransition(entity, to string) {
	m.transitions.WithLabelValues(entity, to).Inc()
}

func (m *Metrics) RecordLedgerDuplicate() {
	m.ledgerDuplicates.Inc()
}

func (m *Metrics) RecordNotifications(sent, retried, failed int) {
	m.notifications.WithLabelValues("sent").Add(float64(sent))
	m.notifications.WithLabelValues("retried").Add(float64(retried))
	m.notifications.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) RecordRateLimitDenial(bucket string) {
	m.rateLimitDenials.WithLabelValues(bucket).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, seconds float64) {
	m.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

func (m *Metrics) RecordDroppedEvent() {
	m.droppedEvents.Inc()
}
