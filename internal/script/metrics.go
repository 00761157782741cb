package script

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "strand"
	metricsSubsystem = "script"
)

// Outcome label values.
const (
	statusOK    = "ok"
	statusError = "error"
)

// Metrics holds the Prometheus collectors a Runner reports to.
type Metrics struct {
	OpsTotal   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec
	RunsTotal  *prometheus.CounterVec
	Rebalances prometheus.Counter
	RopeLength prometheus.Gauge
	RopeDepth  prometheus.Gauge
	collectors []prometheus.Collector
	registerer prometheus.Registerer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ops_total",
			Help:      "Script operations applied, by kind and status.",
		}, []string{"kind", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "op_duration_seconds",
			Help:      "Time spent applying one operation.",
			Buckets:   []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"kind"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "runs_total",
			Help:      "Script runs, by status.",
		}, []string{"status"}),
		Rebalances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rebalances_total",
			Help:      "Rebalances performed, explicit or automatic.",
		}),
		RopeLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rope_length_chars",
			Help:      "Character count of the rope after the last run.",
		}),
		RopeDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rope_depth",
			Help:      "Tree depth of the rope after the last run.",
		}),
		registerer: reg,
	}

	m.collectors = []prometheus.Collector{
		m.OpsTotal, m.OpDuration, m.RunsTotal, m.Rebalances, m.RopeLength, m.RopeDepth,
	}
	for i, c := range m.collectors {
		if err := reg.Register(c); err != nil {
			for _, done := range m.collectors[:i] {
				reg.Unregister(done)
			}
			return nil, fmt.Errorf("register script metrics: %w", err)
		}
	}
	return m, nil
}

// Unregister removes the collectors from the registry they were added to.
func (m *Metrics) Unregister() {
	for _, c := range m.collectors {
		m.registerer.Unregister(c)
	}
}

func (m *Metrics) observeOp(kind Kind, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := statusOK
	if err != nil {
		status = statusError
	}
	m.OpsTotal.WithLabelValues(string(kind), status).Inc()
	m.OpDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) observeRun(length, depth int, err error) {
	if m == nil {
		return
	}
	status := statusOK
	if err != nil {
		status = statusError
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RopeLength.Set(float64(length))
	m.RopeDepth.Set(float64(depth))
}

func (m *Metrics) observeRebalance() {
	if m == nil {
		return
	}
	m.Rebalances.Inc()
}
