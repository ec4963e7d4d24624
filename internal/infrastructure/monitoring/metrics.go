package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Wait outcomes.
const (
	WaitMatched   = "matched"
	WaitTimeout   = "timeout"
	WaitAborted   = "aborted"
	WaitCancelled = "cancelled"

	// WaitDisposed settles a wait the caller abandoned; it is not recorded.
	WaitDisposed = "disposed"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Channel metrics
	Calls        *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	CallErrors   *prometheus.CounterVec
	Pushes       *prometheus.CounterVec

	// Object metrics
	ObjectsLive prometheus.Gauge

	// Wait metrics
	Waits *prometheus.CounterVec

	// Target server metrics
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	TargetSessions  prometheus.Gauge
	ScriptDurations prometheus.Histogram
}

// NewMetrics registers a metrics set on reg. A nil reg uses a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electron_channel_calls_total",
				Help: "Total number of calls sent over the channel",
			},
			[]string{"type", "method", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "electron_channel_call_duration_seconds",
				Help:    "Round trip time of channel calls in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"type", "method"},
		),
		CallErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electron_channel_call_errors_total",
				Help: "Total number of failed channel calls",
			},
			[]string{"type", "method"},
		),
		Pushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electron_channel_pushes_total",
				Help: "Total number of pushes dispatched to remote objects",
			},
			[]string{"type", "event"},
		),
		ObjectsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "electron_objects_live",
				Help: "Number of remote objects currently registered",
			},
		),
		Waits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electron_event_waits_total",
				Help: "Total number of settled event waits by outcome",
			},
			[]string{"event", "outcome"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "electron_target_http_requests_total",
				Help: "Total number of HTTP requests served by the target",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "electron_target_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TargetSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "electron_target_sessions",
				Help: "Number of controller sessions attached to the target",
			},
		),
		ScriptDurations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "electron_target_script_duration_seconds",
				Help:    "Evaluation time of expressions in the target scripting context",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
	}
}

// RecordCall records one completed call
func (m *Metrics) RecordCall(typ, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(typ, method, status).Inc()
	m.CallDuration.WithLabelValues(typ, method).Observe(duration.Seconds())
	if status != "ok" {
		m.CallErrors.WithLabelValues(typ, method).Inc()
	}
}

// RecordPush records one dispatched push
func (m *Metrics) RecordPush(typ, event string) {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues(typ, event).Inc()
}

// RecordWait records how an event wait settled
func (m *Metrics) RecordWait(event, outcome string) {
	if m == nil {
		return
	}
	m.Waits.WithLabelValues(event, outcome).Inc()
}

// ObjectCreated increments the live object gauge
func (m *Metrics) ObjectCreated() {
	if m == nil {
		return
	}
	m.ObjectsLive.Inc()
}

// ObjectDisposed decrements the live object gauge
func (m *Metrics) ObjectDisposed() {
	if m == nil {
		return
	}
	m.ObjectsLive.Dec()
}

// RecordHTTPRequest records one HTTP request served by the target
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScript records one expression evaluation
func (m *Metrics) RecordScript(duration time.Duration) {
	if m == nil {
		return
	}
	m.ScriptDurations.Observe(duration.Seconds())
}
