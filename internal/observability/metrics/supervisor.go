package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SupervisorMetrics contains Prometheus metrics for the auto-recording supervisor
type SupervisorMetrics struct {
	registry *prometheus.Registry

	reconcilesTotal          *prometheus.CounterVec
	reconcileDurationSeconds prometheus.Histogram
	desiredRecorders         prometheus.Gauge
	actualRecorders          prometheus.Gauge
	actionsTotal             *prometheus.CounterVec
}

// NewSupervisorMetrics creates and registers new supervisor metrics
func NewSupervisorMetrics(registry *prometheus.Registry) (*SupervisorMetrics, error) {
	m := &SupervisorMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SupervisorMetrics) initMetrics() {
	m.reconcilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_reconciles_total",
			Help: "Total number of reconciliation passes",
		},
		[]string{"status"}, // status: success, error
	)

	m.reconcileDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "supervisor_reconcile_duration_seconds",
		Help:    "Time taken for one reconciliation pass",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})

	m.desiredRecorders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_desired_recorders",
		Help: "Number of cameras that should be recording",
	})

	m.actualRecorders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_actual_recorders",
		Help: "Number of cameras actually recording",
	})

	m.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_actions_total",
			Help: "Recorder starts and stops initiated by the supervisor",
		},
		[]string{"action", "status"}, // action: start, stop; status: success, error
	)
}

// Describe implements the Collector interface
func (m *SupervisorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.reconcilesTotal.Describe(ch)
	m.reconcileDurationSeconds.Describe(ch)
	m.desiredRecorders.Describe(ch)
	m.actualRecorders.Describe(ch)
	m.actionsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *SupervisorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.reconcilesTotal.Collect(ch)
	m.reconcileDurationSeconds.Collect(ch)
	m.desiredRecorders.Collect(ch)
	m.actualRecorders.Collect(ch)
	m.actionsTotal.Collect(ch)
}

// RecordReconcile records one reconciliation pass
func (m *SupervisorMetrics) RecordReconcile(status string, duration float64) {
	m.reconcilesTotal.WithLabelValues(status).Inc()
	m.reconcileDurationSeconds.Observe(duration)
}

// UpdateRecorderCounts sets the desired and actual recorder gauges
func (m *SupervisorMetrics) UpdateRecorderCounts(desired, actual int) {
	m.desiredRecorders.Set(float64(desired))
	m.actualRecorders.Set(float64(actual))
}

// RecordAction records a supervisor-initiated recorder start or stop
func (m *SupervisorMetrics) RecordAction(action, status string) {
	m.actionsTotal.WithLabelValues(action, status).Inc()
}
