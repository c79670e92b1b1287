// Package metrics holds the Prometheus instruments of the bot runtime. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runbot"

// Dispatch outcomes.
const (
	OutcomeHandled    = "handled"
	OutcomeNotHandled = "not_handled"
	OutcomeError      = "error"
	OutcomePanic      = "panic"
)

// Request outcomes.
const (
	RequestOK        = "ok"
	RequestFailed    = "failed"
	RequestTimeout   = "timeout"
	RequestNotReady  = "not_ready"
	RequestTransport = "transport"
)

type Metrics struct {
	FramesReceived   *prometheus.CounterVec
	DecodeErrors     prometheus.Counter
	Dispatched       *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	Pending          prometheus.Gauge
	Requests         *prometheus.CounterVec
	Reconnects       prometheus.Counter
	Connections      prometheus.Gauge
}

// New creates the instruments and registers them with reg. A nil reg leaves
// them unregistered, which tests use.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "frames",
				Name:      "received_total",
				Help:      "Inbound frames by decoded kind",
			},
			[]string{"kind"},
		),
		DecodeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "frames",
				Name:      "decode_errors_total",
				Help:      "Inbound frames dropped because they could not be decoded",
			},
		),
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "total",
				Help:      "Events dispatched through the processor chain by outcome",
			},
			[]string{"outcome"},
		),
		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Time spent running the processor chain for one event",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "pending",
				Help:      "Requests waiting for a response",
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "total",
				Help:      "Requests sent by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "connection",
				Name:      "reconnects_total",
				Help:      "Reconnect attempts after a lost or failed connection",
			},
		),
		Connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "connection",
				Name:      "open",
				Help:      "Open bot connections",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.FramesReceived, m.DecodeErrors, m.Dispatched, m.DispatchDuration,
		m.Pending, m.Requests, m.Reconnects, m.Connections,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) FrameReceived(kind string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) DecodeFailed() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

func (m *Metrics) DispatchDone(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(outcome).Inc()
	m.DispatchDuration.Observe(took.Seconds())
}

func (m *Metrics) PendingAdd(delta int) {
	if m == nil {
		return
	}
	m.Pending.Add(float64(delta))
}

func (m *Metrics) RequestDone(action, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Reconnected() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) ConnectionsAdd(delta int) {
	if m == nil {
		return
	}
	m.Connections.Add(float64(delta))
}
