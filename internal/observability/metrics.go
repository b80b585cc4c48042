package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for SkillBridge.
// Uses a custom registry — no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// HTTP API metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Suggestion pipeline metrics.
	SuggestionsTotal *prometheus.CounterVec

	// LLM metrics.
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	// Stats refresher metrics.
	StatsSyncRunsTotal *prometheus.CounterVec

	// Chat metrics.
	ChatConnections prometheus.Gauge
	ChatMessages    prometheus.Counter
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skillbridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		SuggestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillbridge",
			Subsystem: "suggest",
			Name:      "suggestions_total",
			Help:      "Total suggestion computations by source (llm or fallback).",
		}, []string{"source"}),

		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillbridge",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total LLM API requests.",
		}, []string{"provider", "status"}),

		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skillbridge",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM API request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),

		StatsSyncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillbridge",
			Subsystem: "statsync",
			Name:      "runs_total",
			Help:      "Total stats refresher runs.",
		}, []string{"status"}),

		ChatConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "skillbridge",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Currently open chat WebSocket connections.",
		}),

		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skillbridge",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages broadcast.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SuggestionsTotal,
		m.LLMRequestsTotal,
		m.LLMRequestDuration,
		m.StatsSyncRunsTotal,
		m.ChatConnections,
		m.ChatMessages,
	)

	return m
}

// RecordSuggestion counts one suggestion computation. Satisfies the
// suggestion service's Recorder interface; nil-safe.
func (m *MetricsCollector) RecordSuggestion(source string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(source).Inc()
}

// RecordHTTPRequest counts one finished HTTP request; nil-safe.
func (m *MetricsCollector) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordLLMRequest counts one LLM API round-trip and observes its duration,
// labeled by provider name and outcome; nil-safe.
func (m *MetricsCollector) RecordLLMRequest(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordChatConnection tracks a chat WebSocket connect (+1) or disconnect (-1); nil-safe.
func (m *MetricsCollector) RecordChatConnection(delta int) {
	if m == nil {
		return
	}
	m.ChatConnections.Add(float64(delta))
}

// RecordChatMessage counts one broadcast chat message; nil-safe.
func (m *MetricsCollector) RecordChatMessage() {
	if m == nil {
		return
	}
	m.ChatMessages.Inc()
}

// RecordStatsSyncRun counts one stats refresher run; nil-safe.
func (m *MetricsCollector) RecordStatsSyncRun(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StatsSyncRunsTotal.WithLabelValues(status).Inc()
}
