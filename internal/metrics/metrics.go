package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the shop's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	notifications    *prometheus.CounterVec
	ordersCreated    prometheus.Counter
	payments         *prometheus.CounterVec
	stageTransitions *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_notifications_total",
		Help: "Customer notifications by channel, kind, and outcome.",
	}, []string{"channel", "kind", "outcome"})

	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Orders created through intake.",
	})

	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_payments_total",
		Help: "Payments recorded by method.",
	}, []string{"method"})

	stageTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_stage_transitions_total",
		Help: "Workflow stage transitions by target stage.",
	}, []string{"stage"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		notifications,
		ordersCreated,
		payments,
		stageTransitions,
	)

	return &Metrics{
		registry:         reg,
		httpRequests:     httpRequests,
		httpDuration:     httpDuration,
		notifications:    notifications,
		ordersCreated:    ordersCreated,
		payments:         payments,
		stageTransitions: stageTransitions,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = sanitizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveNotification(channel, kind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sanitizeLabel(channel), sanitizeLabel(kind), sanitizeLabel(outcome)).Inc()
}

func (m *Metrics) ObserveOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) ObservePayment(method string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(sanitizeLabel(method)).Inc()
}

func (m *Metrics) ObserveStageTransition(stage string) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(sanitizeLabel(stage)).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
