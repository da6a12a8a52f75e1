// Package telemetry holds the Prometheus metrics of the console.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all console metrics.
//
// Create one instance per registry. Tests pass prometheus.NewRegistry() so
// each case starts from zero.
type Metrics struct {
	registry prometheus.Gatherer

	GatewayCalls        *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec
	Notifications       *prometheus.CounterVec
	ToastConnections    prometheus.Gauge
	ClientLogLines      *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

// NewMetrics creates all console metrics and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtest_console_gateway_calls_total",
			Help: "Kubernetes API calls made by resource gateways",
		}, []string{"gateway", "verb", "outcome"}),
		GatewayCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtest_console_gateway_call_duration_seconds",
			Help:    "Latency of Kubernetes API calls made by resource gateways",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"gateway", "verb"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtest_console_notifications_total",
			Help: "Notifications emitted to the browser, by variant",
		}, []string{"variant"}),
		ToastConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowtest_console_toast_connections",
			Help: "Open toast websocket connections",
		}),
		ClientLogLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtest_console_client_log_lines_total",
			Help: "Lines logged by the Kubernetes client libraries, by level",
		}, []string{"level"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtest_console_http_requests_total",
			Help: "HTTP requests served by the console",
		}, []string{"route", "code"}),
	}
	registry.MustRegister(
		m.GatewayCalls,
		m.GatewayCallDuration,
		m.Notifications,
		m.ToastConnections,
		m.ClientLogLines,
		m.HTTPRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one gateway call.
func (m *Metrics) ObserveCall(gateway, verb string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GatewayCalls.WithLabelValues(gateway, verb, outcome).Inc()
	m.GatewayCallDuration.WithLabelValues(gateway, verb).Observe(elapsed.Seconds())
}

// ObserveNotification counts one emitted toast.
func (m *Metrics) ObserveNotification(variant string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(variant).Inc()
}

func (m *Metrics) ToastConnected() {
	if m != nil {
		m.ToastConnections.Inc()
	}
}

func (m *Metrics) ToastDisconnected() {
	if m != nil {
		m.ToastConnections.Dec()
	}
}

// ObserveClientLog counts one client library log line.
func (m *Metrics) ObserveClientLog(level string) {
	if m != nil {
		m.ClientLogLines.WithLabelValues(level).Inc()
	}
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}
