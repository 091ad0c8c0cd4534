// Package metrics provides Prometheus counters/gauges/histograms for the
// session engine: state transitions, resend ranges, heartbeat timeouts,
// message-logger discontinuities, and primmap resize counts.
//
// Grounded on pkg/metadata/lock/metrics.go's CounterVec/GaugeVec/
// HistogramVec shape: label constants as untyped string consts, a struct
// of pre-built vectors registered once at construction, nil-receiver
// methods that no-op so call sites never need a nil check.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants for metrics.
const (
	LabelProtocol   = "protocol" // "fix" or "fixp"
	LabelFromState  = "from_state"
	LabelToState    = "to_state"
	LabelReason     = "reason"
	LabelDirection  = "direction" // "inbound" or "outbound"
	LabelPersistent = "persistence_mode"
)

// Disconnect reason label values: snake_case forms of gwerrors code names,
// plus logout and admin disconnects, which have no gwerrors code.
const (
	ReasonOutOfSequence   = "out_of_sequence"
	ReasonHeartbeatTimeout = "heartbeat_timeout"
	ReasonLogout          = "logout"
	ReasonAuthRejected    = "authentication_rejected"
	ReasonAdmin           = "admin_disconnect"
)

// Metrics provides Prometheus metrics for the session engine.
type Metrics struct {
	sessionTransitionTotal *prometheus.CounterVec
	sessionActiveGauge     *prometheus.GaugeVec
	disconnectTotal        *prometheus.CounterVec

	resendRangeSize  prometheus.Histogram
	resendRequestsTotal *prometheus.CounterVec

	heartbeatTimeoutTotal *prometheus.CounterVec

	loggerDiscontinuityTotal *prometheus.CounterVec
	loggerBufferPosition     prometheus.Gauge
	loggerCompactionTotal    prometheus.Counter

	primmapResizeTotal prometheus.Counter
	primmapLoadFactor  prometheus.Gauge

	adminHandoffTotal *prometheus.CounterVec

	registered bool
}

// NewMetrics creates and registers session-engine metrics. If registry is
// nil, metrics are created but not registered (useful for testing).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionTransitionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "transition_total",
				Help:      "Total number of session/connection state transitions",
			},
			[]string{LabelProtocol, LabelFromState, LabelToState},
		),

		sessionActiveGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "active",
				Help:      "Number of sessions currently in an active/established state",
			},
			[]string{LabelProtocol},
		),

		disconnectTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "disconnect_total",
				Help:      "Total number of session disconnects by reason",
			},
			[]string{LabelProtocol, LabelReason},
		),

		resendRangeSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "resend_range_size",
				Help:      "Number of messages covered by a single resend/retransmit",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 500, 1000},
			},
		),

		resendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "resend_requests_total",
				Help:      "Total number of resend/retransmit requests observed",
			},
			[]string{LabelProtocol, LabelDirection},
		),

		heartbeatTimeoutTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "sessions",
				Name:      "heartbeat_timeout_total",
				Help:      "Total number of heartbeat/keepalive timeouts observed",
			},
			[]string{LabelProtocol},
		),

		loggerDiscontinuityTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "msglog",
				Name:      "discontinuity_total",
				Help:      "Total number of sequence discontinuities observed by the reordering buffer",
			},
			[]string{LabelDirection},
		),

		loggerBufferPosition: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "msglog",
				Name:      "buffer_position_bytes",
				Help:      "Current write position of the reordering buffer",
			},
		),

		loggerCompactionTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "msglog",
				Name:      "compaction_total",
				Help:      "Total number of times the reordering buffer's live range was relocated to the head",
			},
		),

		primmapResizeTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "primmap",
				Name:      "resize_total",
				Help:      "Total number of primmap table resizes",
			},
		),

		primmapLoadFactor: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "primmap",
				Name:      "load_factor",
				Help:      "Current load factor of the primmap table",
			},
		),

		adminHandoffTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "admin",
				Name:      "handoff_total",
				Help:      "Total number of release_to_gateway/acquire handoffs by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.sessionTransitionTotal,
			m.sessionActiveGauge,
			m.disconnectTotal,
			m.resendRangeSize,
			m.resendRequestsTotal,
			m.heartbeatTimeoutTotal,
			m.loggerDiscontinuityTotal,
			m.loggerBufferPosition,
			m.loggerCompactionTotal,
			m.primmapResizeTotal,
			m.primmapLoadFactor,
			m.adminHandoffTotal,
		)
		m.registered = true
	}

	return m
}

// ObserveTransition records a session/connection state transition.
func (m *Metrics) ObserveTransition(protocol, from, to string) {
	if m == nil {
		return
	}
	m.sessionTransitionTotal.WithLabelValues(protocol, from, to).Inc()
}

// SetActiveSessions sets the number of active sessions/connections for a protocol.
func (m *Metrics) SetActiveSessions(protocol string, count float64) {
	if m == nil {
		return
	}
	m.sessionActiveGauge.WithLabelValues(protocol).Set(count)
}

// ObserveDisconnect records a disconnect by reason.
func (m *Metrics) ObserveDisconnect(protocol, reason string) {
	if m == nil {
		return
	}
	m.disconnectTotal.WithLabelValues(protocol, reason).Inc()
}

// ObserveResendRange records the size of a resend/retransmit range.
func (m *Metrics) ObserveResendRange(protocol, direction string, size int) {
	if m == nil {
		return
	}
	m.resendRangeSize.Observe(float64(size))
	m.resendRequestsTotal.WithLabelValues(protocol, direction).Inc()
}

// ObserveHeartbeatTimeout records a heartbeat/keepalive timeout.
func (m *Metrics) ObserveHeartbeatTimeout(protocol string) {
	if m == nil {
		return
	}
	m.heartbeatTimeoutTotal.WithLabelValues(protocol).Inc()
}

// ObserveLoggerDiscontinuity records a sequence gap observed by the
// reordering buffer.
func (m *Metrics) ObserveLoggerDiscontinuity(direction string) {
	if m == nil {
		return
	}
	m.loggerDiscontinuityTotal.WithLabelValues(direction).Inc()
}

// SetLoggerBufferPosition sets the reordering buffer's current write position.
func (m *Metrics) SetLoggerBufferPosition(pos int64) {
	if m == nil {
		return
	}
	m.loggerBufferPosition.Set(float64(pos))
}

// ObserveLoggerCompaction records a buffer compaction event.
func (m *Metrics) ObserveLoggerCompaction() {
	if m == nil {
		return
	}
	m.loggerCompactionTotal.Inc()
}

// ObservePrimmapResize records a primmap table resize and its resulting load factor.
func (m *Metrics) ObservePrimmapResize(loadFactor float64) {
	if m == nil {
		return
	}
	m.primmapResizeTotal.Inc()
	m.primmapLoadFactor.Set(loadFactor)
}

// ObserveAdminHandoff records a release_to_gateway/acquire outcome.
func (m *Metrics) ObserveAdminHandoff(operation, outcome string) {
	if m == nil {
		return
	}
	m.adminHandoffTotal.WithLabelValues(operation, outcome).Inc()
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	if m == nil || !m.registered {
		return
	}
	m.sessionTransitionTotal.Describe(ch)
	m.sessionActiveGauge.Describe(ch)
	m.disconnectTotal.Describe(ch)
	ch <- m.resendRangeSize.Desc()
	m.resendRequestsTotal.Describe(ch)
	m.heartbeatTimeoutTotal.Describe(ch)
	m.loggerDiscontinuityTotal.Describe(ch)
	ch <- m.loggerBufferPosition.Desc()
	ch <- m.loggerCompactionTotal.Desc()
	ch <- m.primmapResizeTotal.Desc()
	ch <- m.primmapLoadFactor.Desc()
	m.adminHandoffTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m == nil || !m.registered {
		return
	}
	m.sessionTransitionTotal.Collect(ch)
	m.sessionActiveGauge.Collect(ch)
	m.disconnectTotal.Collect(ch)
	ch <- m.resendRangeSize
	m.resendRequestsTotal.Collect(ch)
	m.heartbeatTimeoutTotal.Collect(ch)
	m.loggerDiscontinuityTotal.Collect(ch)
	ch <- m.loggerBufferPosition
	ch <- m.loggerCompactionTotal
	ch <- m.primmapResizeTotal
	ch <- m.primmapLoadFactor
	m.adminHandoffTotal.Collect(ch)
}
