// manager.go - lifecycle management for per-camera recorders
package recorder

import (
	"slices"
	"sync"

	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/observability/metrics"
	"github.com/camsentry/camsentry/internal/storagepool"
)

// Manager owns at most one SegmentRecorder per camera and coordinates their
// startup and shutdown.
type Manager struct {
	ds       datastore.Interface
	registry *storagepool.Registry
	metrics  *metrics.RecorderMetrics

	mu        sync.RWMutex
	recorders map[uint]*SegmentRecorder
}

// NewManager creates a recorder manager.
func NewManager(ds datastore.Interface, registry *storagepool.Registry) *Manager {
	if recorderLogger == nil {
		InitLogger()
	}
	return &Manager{
		ds:        ds,
		registry:  registry,
		recorders: make(map[uint]*SegmentRecorder),
	}
}

// SetMetrics attaches Prometheus metrics, passed on to every new recorder.
func (m *Manager) SetMetrics(rm *metrics.RecorderMetrics) {
	m.metrics = rm
}

// StartRecorder begins segmented recording for a camera. Starting a camera
// that is already recording is a no-op.
func (m *Manager) StartRecorder(camera datastore.Camera) error {
	m.mu.Lock()
	if _, exists := m.recorders[camera.ID]; exists {
		m.mu.Unlock()
		recorderLogger.Debug("recorder already active",
			"camera", camera.Name,
			"camera_id", camera.ID)
		return nil
	}

	rec := NewSegmentRecorder(camera, m.ds, m.registry)
	if m.metrics != nil {
		rec.SetMetrics(m.metrics)
	}
	m.recorders[camera.ID] = rec
	count := len(m.recorders)
	m.mu.Unlock()

	if err := rec.Start(); err != nil {
		m.mu.Lock()
		delete(m.recorders, camera.ID)
		count = len(m.recorders)
		m.mu.Unlock()
		m.updateActiveCount(count)
		return err
	}

	m.updateActiveCount(count)
	return nil
}

// StopRecorder stops recording for a camera and blocks until the current
// segment is finalized. Stopping a camera that is not recording is a no-op.
func (m *Manager) StopRecorder(cameraID uint) {
	m.mu.Lock()
	rec, exists := m.recorders[cameraID]
	if exists {
		delete(m.recorders, cameraID)
	}
	count := len(m.recorders)
	m.mu.Unlock()

	if !exists {
		return
	}
	rec.Stop()
	m.updateActiveCount(count)
}

// IsRecording reports whether a recorder is active for the camera.
func (m *Manager) IsRecording(cameraID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.recorders[cameraID]
	return exists
}

// ActiveCameras returns the IDs of all cameras currently recording, sorted
// for deterministic output.
func (m *Manager) ActiveCameras() []uint {
	m.mu.RLock()
	ids := make([]uint, 0, len(m.recorders))
	for id := range m.recorders {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Count returns the number of active recorders.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recorders)
}

// StopAll stops every active recorder in parallel and waits for all of them
// to finish their current segments.
func (m *Manager) StopAll() {
	m.mu.Lock()
	stopping := make([]*SegmentRecorder, 0, len(m.recorders))
	for id, rec := range m.recorders {
		stopping = append(stopping, rec)
		delete(m.recorders, id)
	}
	m.mu.Unlock()

	if len(stopping) == 0 {
		return
	}
	recorderLogger.Info("stopping all recorders", "count", len(stopping))

	var wg sync.WaitGroup
	for _, rec := range stopping {
		wg.Add(1)
		go func(r *SegmentRecorder) {
			defer wg.Done()
			r.Stop()
		}(rec)
	}
	wg.Wait()
	m.updateActiveCount(0)
}

func (m *Manager) updateActiveCount(count int) {
	if m.metrics != nil {
		m.metrics.SetActiveRecorders(count)
	}
}
