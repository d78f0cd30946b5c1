package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RecorderMetrics contains Prometheus metrics for segmented recorders
type RecorderMetrics struct {
	registry *prometheus.Registry

	activeRecorders        prometheus.Gauge
	segmentsTotal          *prometheus.CounterVec
	segmentDurationSeconds *prometheus.HistogramVec
	segmentBytes           *prometheus.HistogramVec
	restartsTotal          *prometheus.CounterVec
	processStopsTotal      *prometheus.CounterVec
}

// NewRecorderMetrics creates and registers new recorder metrics
func NewRecorderMetrics(registry *prometheus.Registry) (*RecorderMetrics, error) {
	m := &RecorderMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RecorderMetrics) initMetrics() {
	m.activeRecorders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recorder_active_recorders",
		Help: "Number of cameras currently being recorded",
	})

	m.segmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recorder_segments_total",
			Help: "Total number of recorded segments",
		},
		[]string{"camera", "status"}, // status: completed, failed
	)

	m.segmentDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recorder_segment_duration_seconds",
			Help:    "Observed duration of finished segments",
			Buckets: prometheus.LinearBuckets(0, 60, 10), // 0 to 10 minutes
		},
		[]string{"camera"},
	)

	m.segmentBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recorder_segment_bytes",
			Help:    "Size of finished segments in bytes",
			Buckets: prometheus.ExponentialBuckets(1e6, 4, 8), // 1MB to ~16GB
		},
		[]string{"camera"},
	)

	m.restartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recorder_restarts_total",
			Help: "Total number of segment writer restarts after failure",
		},
		[]string{"camera"},
	)

	m.processStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recorder_process_stops_total",
			Help: "Total number of capture process stops",
		},
		[]string{"camera", "kind"}, // kind: graceful, terminated, killed
	)
}

// Describe implements the Collector interface
func (m *RecorderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.activeRecorders.Describe(ch)
	m.segmentsTotal.Describe(ch)
	m.segmentDurationSeconds.Describe(ch)
	m.segmentBytes.Describe(ch)
	m.restartsTotal.Describe(ch)
	m.processStopsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *RecorderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.activeRecorders.Collect(ch)
	m.segmentsTotal.Collect(ch)
	m.segmentDurationSeconds.Collect(ch)
	m.segmentBytes.Collect(ch)
	m.restartsTotal.Collect(ch)
	m.processStopsTotal.Collect(ch)
}

// SetActiveRecorders sets the number of cameras currently recording
func (m *RecorderMetrics) SetActiveRecorders(count int) {
	m.activeRecorders.Set(float64(count))
}

// RecordSegment records one finished segment
func (m *RecorderMetrics) RecordSegment(camera, status string, durationSeconds float64, sizeBytes int64) {
	m.segmentsTotal.WithLabelValues(camera, status).Inc()
	if status == "completed" {
		m.segmentDurationSeconds.WithLabelValues(camera).Observe(durationSeconds)
		m.segmentBytes.WithLabelValues(camera).Observe(float64(sizeBytes))
	}
}

// RecordRestart records a segment writer restart
func (m *RecorderMetrics) RecordRestart(camera string) {
	m.restartsTotal.WithLabelValues(camera).Inc()
}

// RecordProcessStop records how a capture process came down
func (m *RecorderMetrics) RecordProcessStop(camera, kind string) {
	m.processStopsTotal.WithLabelValues(camera, kind).Inc()
}
