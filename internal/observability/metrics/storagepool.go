package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoragePoolMetrics contains Prometheus metrics for the storage pool registry
type StoragePoolMetrics struct {
	registry *prometheus.Registry

	poolTotalGB       *prometheus.GaugeVec
	poolUsedGB        *prometheus.GaugeVec
	poolFreeGB        *prometheus.GaugeVec
	poolAvailable     *prometheus.GaugeVec
	refreshTotal      *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	selectionsTotal   *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
}

// NewStoragePoolMetrics creates and registers new storage pool metrics
func NewStoragePoolMetrics(registry *prometheus.Registry) (*StoragePoolMetrics, error) {
	m := &StoragePoolMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *StoragePoolMetrics) initMetrics() {
	m.poolTotalGB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagepool_total_gb",
			Help: "Total capacity of the pool filesystem in GB",
		},
		[]string{"pool"},
	)

	m.poolUsedGB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagepool_used_gb",
			Help: "Used space of the pool filesystem in GB",
		},
		[]string{"pool"},
	)

	m.poolFreeGB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagepool_free_gb",
			Help: "Free space of the pool filesystem in GB",
		},
		[]string{"pool"},
	)

	m.poolAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagepool_available",
			Help: "Whether the pool can accept new recordings (1) or not (0)",
		},
		[]string{"pool"},
	)

	m.refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagepool_refresh_total",
			Help: "Total number of pool stats refreshes",
		},
		[]string{"status"}, // status: success, error
	)

	m.refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storagepool_refresh_duration_seconds",
		Help:    "Time taken to refresh stats for all pools",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})

	m.selectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagepool_selections_total",
			Help: "Total number of pool selections for new recordings",
		},
		[]string{"pool", "reason"}, // reason: assigned, default, best_available
	)

	m.statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagepool_status_transitions_total",
			Help: "Total number of pool status transitions",
		},
		[]string{"pool", "to"},
	)
}

// Describe implements the Collector interface
func (m *StoragePoolMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.poolTotalGB.Describe(ch)
	m.poolUsedGB.Describe(ch)
	m.poolFreeGB.Describe(ch)
	m.poolAvailable.Describe(ch)
	m.refreshTotal.Describe(ch)
	m.refreshDuration.Describe(ch)
	m.selectionsTotal.Describe(ch)
	m.statusTransitions.Describe(ch)
}

// Collect implements the Collector interface
func (m *StoragePoolMetrics) Collect(ch chan<- prometheus.Metric) {
	m.poolTotalGB.Collect(ch)
	m.poolUsedGB.Collect(ch)
	m.poolFreeGB.Collect(ch)
	m.poolAvailable.Collect(ch)
	m.refreshTotal.Collect(ch)
	m.refreshDuration.Collect(ch)
	m.selectionsTotal.Collect(ch)
	m.statusTransitions.Collect(ch)
}

// UpdatePoolStats updates the capacity gauges of one pool
func (m *StoragePoolMetrics) UpdatePoolStats(pool string, totalGB, usedGB, freeGB float64, available bool) {
	m.poolTotalGB.WithLabelValues(pool).Set(totalGB)
	m.poolUsedGB.WithLabelValues(pool).Set(usedGB)
	m.poolFreeGB.WithLabelValues(pool).Set(freeGB)
	availableValue := 0.0
	if available {
		availableValue = 1.0
	}
	m.poolAvailable.WithLabelValues(pool).Set(availableValue)
}

// RecordRefresh records one registry-wide stats refresh
func (m *StoragePoolMetrics) RecordRefresh(status string, duration float64) {
	m.refreshTotal.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(duration)
}

// RecordSelection records a pool being chosen for a new recording
func (m *StoragePoolMetrics) RecordSelection(pool, reason string) {
	m.selectionsTotal.WithLabelValues(pool, reason).Inc()
}

// RecordStatusTransition records a pool status change
func (m *StoragePoolMetrics) RecordStatusTransition(pool, to string) {
	m.statusTransitions.WithLabelValues(pool, to).Inc()
}
