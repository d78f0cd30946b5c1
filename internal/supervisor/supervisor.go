// Package supervisor keeps per-camera recorders aligned with the camera
// state in the database. It polls the camera table on a fixed interval and
// starts or stops recorders so that every enabled, reachable camera is
// recording and nothing else is.
package supervisor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/errors"
	"github.com/camsentry/camsentry/internal/logging"
	"github.com/camsentry/camsentry/internal/observability/metrics"
)

var supervisorLogger *slog.Logger

// InitLogger sets up the supervisor service logger, falling back to the
// default slog logger if logging has not been initialized yet.
func InitLogger() {
	supervisorLogger = logging.ForService("supervisor")
	if supervisorLogger == nil {
		supervisorLogger = slog.Default().With("service", "supervisor")
	}
}

// RecorderManager is the part of the recorder manager the supervisor drives.
type RecorderManager interface {
	StartRecorder(camera datastore.Camera) error
	StopRecorder(cameraID uint)
	IsRecording(cameraID uint) bool
	ActiveCameras() []uint
	StopAll()
}

// Supervisor reconciles desired recording state against the recorder
// manager. A camera should record when it is enabled and its status is
// online or recording.
type Supervisor struct {
	ds        datastore.Interface
	recorders RecorderManager
	metrics   *metrics.SupervisorMetrics

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	done    chan struct{}
}

// New creates a supervisor over the given datastore and recorder manager.
func New(ds datastore.Interface, recorders RecorderManager) *Supervisor {
	if supervisorLogger == nil {
		InitLogger()
	}
	return &Supervisor{
		ds:        ds,
		recorders: recorders,
	}
}

// SetMetrics attaches Prometheus metrics to the supervisor.
func (s *Supervisor) SetMetrics(m *metrics.SupervisorMetrics) {
	s.metrics = m
}

// Start launches the polling loop in its own goroutine. Starting a running
// supervisor is a no-op.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		supervisorLogger.Warn("supervisor already running")
		return
	}
	s.running = true
	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	supervisorLogger.Info("supervisor starting",
		"poll_interval_s", conf.Setting().Supervisor.PollInterval,
		"startup_delay_s", conf.Setting().Supervisor.StartupDelay)

	go s.loop(s.quit, s.done)
}

// Stop terminates the polling loop and stops every recorder, blocking until
// all current segments are finalized.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	quit, done := s.quit, s.done
	s.mu.Unlock()

	close(quit)
	<-done

	s.recorders.StopAll()
	supervisorLogger.Info("supervisor stopped")
}

// loop waits out the startup delay, then reconciles on a fixed interval.
func (s *Supervisor) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	settings := conf.Setting()
	startupDelay := time.Duration(settings.Supervisor.StartupDelay) * time.Second
	interval := time.Duration(settings.Supervisor.PollInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	// let cameras and the network settle after process start
	if startupDelay > 0 {
		select {
		case <-quit:
			return
		case <-time.After(startupDelay):
		}
	}

	if err := s.Reconcile(); err != nil {
		supervisorLogger.Error("reconcile failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if err := s.Reconcile(); err != nil {
				supervisorLogger.Error("reconcile failed", "error", err)
			}
		}
	}
}

// Reconcile performs one level-triggered pass: start recorders for cameras
// that should record and are not, stop recorders for cameras that should not
// record but are. Individual camera failures do not abort the pass.
func (s *Supervisor) Reconcile() error {
	start := time.Now()

	cameras, err := s.ds.GetAllCameras()
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordReconcile("error", time.Since(start).Seconds())
		}
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("supervisor").
			Context("operation", "reconcile").
			Build()
	}

	desired := 0
	for i := range cameras {
		camera := &cameras[i]
		want := shouldRecord(camera)
		if want {
			desired++
		}
		have := s.recorders.IsRecording(camera.ID)

		switch {
		case want && !have:
			s.startRecording(camera)
		case !want && have:
			s.stopRecording(camera)
		}
	}

	// recorders for cameras that no longer exist are orphans
	known := make(map[uint]bool, len(cameras))
	for i := range cameras {
		known[cameras[i].ID] = true
	}
	for _, id := range s.recorders.ActiveCameras() {
		if !known[id] {
			supervisorLogger.Warn("stopping recorder for removed camera", "camera_id", id)
			s.recorders.StopRecorder(id)
			s.recordAction("stop", "success")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordReconcile("success", time.Since(start).Seconds())
		s.metrics.UpdateRecorderCounts(desired, len(s.recorders.ActiveCameras()))
	}
	return nil
}

// shouldRecord is the desired-state predicate: enabled and reachable.
func shouldRecord(camera *datastore.Camera) bool {
	if !camera.Enabled {
		return false
	}
	return camera.Status == datastore.CameraStatusOnline ||
		camera.Status == datastore.CameraStatusRecording
}

// StartCameraRecording starts recording for one camera on request,
// independent of the polling cycle. The camera must exist.
func (s *Supervisor) StartCameraRecording(cameraID uint) error {
	camera, err := s.ds.GetCamera(cameraID)
	if err != nil {
		return err
	}
	return s.startRecording(&camera)
}

// StopCameraRecording stops recording for one camera on request.
func (s *Supervisor) StopCameraRecording(cameraID uint) error {
	camera, err := s.ds.GetCamera(cameraID)
	if err != nil {
		return err
	}
	s.stopRecording(&camera)
	return nil
}

// startRecording starts a recorder and moves the camera to recording status.
func (s *Supervisor) startRecording(camera *datastore.Camera) error {
	supervisorLogger.Info("starting recording",
		"camera", camera.Name,
		"camera_id", camera.ID)

	if err := s.recorders.StartRecorder(*camera); err != nil {
		supervisorLogger.Error("failed to start recording",
			"camera", camera.Name,
			"camera_id", camera.ID,
			"error", err)
		s.recordAction("start", "error")
		return err
	}

	if err := s.ds.UpdateCameraStatus(camera.ID, datastore.CameraStatusRecording); err != nil {
		supervisorLogger.Error("failed to update camera status",
			"camera", camera.Name,
			"error", err)
	}
	if err := s.ds.SetCameraRecording(camera.ID, true); err != nil {
		supervisorLogger.Error("failed to set camera recording flag",
			"camera", camera.Name,
			"error", err)
	}
	s.recordAction("start", "success")
	return nil
}

// stopRecording stops a recorder and moves the camera back to online, or
// offline when it is disabled.
func (s *Supervisor) stopRecording(camera *datastore.Camera) {
	supervisorLogger.Info("stopping recording",
		"camera", camera.Name,
		"camera_id", camera.ID)

	s.recorders.StopRecorder(camera.ID)

	if err := s.ds.SetCameraRecording(camera.ID, false); err != nil {
		supervisorLogger.Error("failed to clear camera recording flag",
			"camera", camera.Name,
			"error", err)
	}

	if camera.Status == datastore.CameraStatusRecording {
		status := datastore.CameraStatusOnline
		if !camera.Enabled {
			status = datastore.CameraStatusOffline
		}
		if err := s.ds.UpdateCameraStatus(camera.ID, status); err != nil {
			supervisorLogger.Error("failed to update camera status",
				"camera", camera.Name,
				"error", err)
		}
	}
	s.recordAction("stop", "success")
}

func (s *Supervisor) recordAction(action, status string) {
	if s.metrics != nil {
		s.metrics.RecordAction(action, status)
	}
}
