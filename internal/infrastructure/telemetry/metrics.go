package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "marketplace"

// Metrics holds the application's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	eventsHandled   *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	pushDeliveries  *prometheus.CounterVec
	liveSubscribers prometheus.Gauge
	documentRenders *prometheus.CounterVec
}

// NewMetrics builds and registers every collector. Pass withRuntime=false in
// tests to leave out the Go and process collectors.
func NewMetrics(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		eventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Domain events dispatched to handlers.",
		}, []string{"event_type", "result"}),
		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "handler_duration_seconds",
			Help:      "Duration of domain event handlers.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"event_type"}),
		pushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "realtime",
			Name:      "push_messages_total",
			Help:      "Messages pushed to live conversation subscribers.",
		}, []string{"result"}),
		liveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "realtime",
			Name:      "live_subscribers",
			Help:      "Open conversation stream connections.",
		}),
		documentRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "documents",
			Name:      "renders_total",
			Help:      "Financial document renders by format and result.",
		}, []string{"format", "result"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.eventsHandled,
		m.eventDuration,
		m.pushDeliveries,
		m.liveSubscribers,
		m.documentRenders,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return m
}

// WatchDBPool exports the connection pool counters of db
func (m *Metrics) WatchDBPool(db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, metricsNamespace))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RequestStarted tracks an in-flight HTTP request
func (m *Metrics) RequestStarted() { m.httpInFlight.Inc() }

// RequestFinished records a completed HTTP request under its route template
func (m *Metrics) RequestFinished(method, route string, status int, duration time.Duration) {
	m.httpInFlight.Dec()
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveEventHandler matches the event bus observer signature.
func (m *Metrics) ObserveEventHandler(eventType string, duration time.Duration, err error) {
	m.eventsHandled.WithLabelValues(eventType, resultLabel(err)).Inc()
	m.eventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// ObservePush counts a push attempt; delivered=false means the subscriber
// buffer was full and the message was dropped.
func (m *Metrics) ObservePush(delivered bool) {
	if delivered {
		m.pushDeliveries.WithLabelValues("delivered").Inc()
		return
	}
	m.pushDeliveries.WithLabelValues("dropped").Inc()
}

func (m *Metrics) StreamOpened() { m.liveSubscribers.Inc() }
func (m *Metrics) StreamClosed() { m.liveSubscribers.Dec() }

func (m *Metrics) ObserveDocumentRender(format string, err error) {
	m.documentRenders.WithLabelValues(format, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
