package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Protocol metrics
	Messages       *prometheus.CounterVec
	ProtocolErrors *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Intent metrics
	Intents        *prometheus.CounterVec
	IntentDuration *prometheus.HistogramVec

	// Navigation metrics
	NavCommits  prometheus.Counter
	NavFailures prometheus.Counter

	// Engine metrics
	EngineSelections *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics against a custom registry,
// which keeps parallel test servers from colliding on registration.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "previewd_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_protocol_messages_total",
				Help: "UTP messages by direction and type",
			},
			[]string{"direction", "type"},
		),
		ProtocolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_protocol_errors_total",
				Help: "Protocol errors by code",
			},
			[]string{"code"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "previewd_sessions_active",
				Help: "Currently active preview sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "previewd_sessions_total",
				Help: "Total preview sessions created",
			},
		),
		Intents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_intents_total",
				Help: "Intent executions by intent id and outcome",
			},
			[]string{"intent_id", "outcome"},
		),
		IntentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "previewd_intent_duration_seconds",
				Help:    "Intent execution latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"intent_id"},
		),
		NavCommits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "previewd_nav_commits_total",
				Help: "Navigation commits delivered to previews",
			},
		),
		NavFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "previewd_nav_failures_total",
				Help: "Navigation requests that failed to resolve",
			},
		),
		EngineSelections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_engine_selections_total",
				Help: "Engine selections by engine",
			},
			[]string{"engine"},
		),
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "previewd_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		startTime: time.Now(),
	}
}

// RecordHTTPRequest records one HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMessage records a UTP message
func (m *Metrics) RecordMessage(direction, msgType string) {
	m.Messages.WithLabelValues(direction, msgType).Inc()
}

// RecordProtocolError records a protocol error
func (m *Metrics) RecordProtocolError(code string) {
	m.ProtocolErrors.WithLabelValues(code).Inc()
}

// RecordIntent records an intent execution
func (m *Metrics) RecordIntent(intentID string, ok bool, duration time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.Intents.WithLabelValues(intentID, outcome).Inc()
	m.IntentDuration.WithLabelValues(intentID).Observe(duration.Seconds())
}

// RecordEngineSelection records an engine decision
func (m *Metrics) RecordEngineSelection(engine string) {
	m.EngineSelections.WithLabelValues(engine).Inc()
}

// SessionOpened tracks a new session
func (m *Metrics) SessionOpened() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// SessionClosed tracks a session teardown
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// statusLabel converts an HTTP status to a label value
func statusLabel(code int) string {
	return strconv.Itoa(code)
}
