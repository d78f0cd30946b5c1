// Package observability provides metrics and monitoring capabilities for the
// camsentry recording engine.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/camsentry/camsentry/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	DiskManager *metrics.DiskManagerMetrics
	StoragePool *metrics.StoragePoolMetrics
	Recorder    *metrics.RecorderMetrics
	Supervisor  *metrics.SupervisorMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	diskManagerMetrics, err := metrics.NewDiskManagerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create DiskManager metrics: %w", err)
	}

	storagePoolMetrics, err := metrics.NewStoragePoolMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create StoragePool metrics: %w", err)
	}

	recorderMetrics, err := metrics.NewRecorderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Recorder metrics: %w", err)
	}

	supervisorMetrics, err := metrics.NewSupervisorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supervisor metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		DiskManager: diskManagerMetrics,
		StoragePool: storagePoolMetrics,
		Recorder:    recorderMetrics,
		Supervisor:  supervisorMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
