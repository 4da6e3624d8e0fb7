package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records ledger traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	transactions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	sessions     prometheus.Gauge
	opened       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventledger",
			Subsystem: "gateway",
			Name:      "transactions_total",
			Help:      "Ledger transactions by name, call kind and outcome.",
		}, []string{"transaction", "kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eventledger",
			Subsystem: "gateway",
			Name:      "transaction_duration_seconds",
			Help:      "Ledger call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transaction", "kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventledger",
			Subsystem: "gateway",
			Name:      "open_sessions",
			Help:      "Ledger sessions currently open.",
		}),
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventledger",
			Subsystem: "gateway",
			Name:      "sessions_total",
			Help:      "Ledger sessions established.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transactions, m.latency, m.sessions, m.opened)
	}
	return m
}

func (m *Metrics) observe(name string, kind CallKind, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(name, kind.String(), outcome(err)).Inc()
	m.latency.WithLabelValues(name, kind.String()).Observe(d.Seconds())
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.opened.Inc()
	m.sessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	default:
		return "error"
	}
}
