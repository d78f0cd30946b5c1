// recorder.go - per-camera segmented capture via ffmpeg
package recorder

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
	"github.com/camsentry/camsentry/internal/errors"
	"github.com/camsentry/camsentry/internal/observability/metrics"
	"github.com/camsentry/camsentry/internal/privacy"
	"github.com/camsentry/camsentry/internal/storagepool"
)

// estimatedSegmentBytes is the worst-case size of one segment, used as the
// pre-write space guard. A high-bitrate camera writes well under 1 GiB in
// five minutes.
const estimatedSegmentBytes int64 = 1 << 30

// maxStateHistory bounds the per-recorder transition history kept for
// debugging.
const maxStateHistory = 50

// Process stop kinds reported in logs and metrics.
const (
	stopGraceful   = "graceful"
	stopTerminated = "terminated"
	stopKilled     = "killed"
)

// SegmentInfo describes one finished segment.
type SegmentInfo struct {
	Path     string
	Start    time.Time
	End      time.Time
	Duration float64
	Size     int64
}

// SegmentRecorder records one camera's RTSP stream as a sequence of fixed
// length segments. Each segment is one ffmpeg process copying the stream
// without re-encoding; the recorder restarts ffmpeg for every segment and
// after failures.
type SegmentRecorder struct {
	camera   datastore.Camera
	ds       datastore.Interface
	registry *storagepool.Registry
	metrics  *metrics.RecorderMetrics

	// sessionID ties all log lines of one recorder run together
	sessionID string
	safeURL   string

	stateMu sync.Mutex
	state   ProcessState
	history []StateTransition
	started bool

	cmdMu sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSegmentRecorder creates a recorder for the given camera. Call Start to
// begin recording.
func NewSegmentRecorder(camera datastore.Camera, ds datastore.Interface, registry *storagepool.Registry) *SegmentRecorder {
	if recorderLogger == nil {
		InitLogger()
	}
	return &SegmentRecorder{
		camera:    camera,
		ds:        ds,
		registry:  registry,
		sessionID: uuid.NewString(),
		safeURL:   privacy.SanitizeRTSPUrl(camera.RTSPUrl),
		state:     StateIdle,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetMetrics attaches Prometheus metrics to the recorder.
func (r *SegmentRecorder) SetMetrics(m *metrics.RecorderMetrics) {
	r.metrics = m
}

// Start validates the ffmpeg binary and launches the segment loop in its own
// goroutine. A missing binary fails Start so the caller learns about the
// misconfiguration immediately instead of through restart churn. A recorder
// that has been stopped is spent; a stream that should resume needs a fresh
// instance.
func (r *SegmentRecorder) Start() error {
	if err := r.errIfStopped(); err != nil {
		return err
	}

	if _, err := resolveFfmpegPath(conf.Setting()); err != nil {
		return err
	}

	r.stateMu.Lock()
	if r.state == StateStopped {
		r.stateMu.Unlock()
		return r.errIfStopped()
	}
	if r.started {
		r.stateMu.Unlock()
		return nil
	}
	r.started = true
	r.stateMu.Unlock()

	recorderLogger.Info("recorder starting",
		"camera", r.camera.Name,
		"camera_id", r.camera.ID,
		"url", r.safeURL,
		"session_id", r.sessionID)

	go r.run()
	return nil
}

// errIfStopped reports the terminal state as an error so Start cannot revive
// a recorder whose done channel is already closed.
func (r *SegmentRecorder) errIfStopped() error {
	r.stateMu.Lock()
	stopped := r.state == StateStopped
	r.stateMu.Unlock()
	if !stopped {
		return nil
	}
	return errors.Newf("recorder for camera %d is stopped and cannot be restarted", r.camera.ID).
		Category(errors.CategoryState).
		Component("recorder").
		Context("camera", r.camera.Name).
		Build()
}

// Stop requests a graceful stop and blocks until the segment loop has exited
// and the current segment is finalized.
func (r *SegmentRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)

		r.stateMu.Lock()
		started := r.started
		r.stateMu.Unlock()
		if !started {
			r.transitionState(StateStopped, "stopped before start")
			close(r.done)
			return
		}
	})
	<-r.done
}

// GetProcessState returns the current process state (thread-safe)
func (r *SegmentRecorder) GetProcessState() ProcessState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

// GetStateHistory returns a copy of the recorded state transitions
func (r *SegmentRecorder) GetStateHistory() []StateTransition {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	history := make([]StateTransition, len(r.history))
	copy(history, r.history)
	return history
}

// Camera returns the camera this recorder captures.
func (r *SegmentRecorder) Camera() datastore.Camera {
	return r.camera
}

// run is the segment loop. It records segments back to back until Stop is
// called, waiting the configured restart delay after failures.
func (r *SegmentRecorder) run() {
	defer func() {
		r.transitionState(StateStopped, "segment loop exited")
		recorderLogger.Info("recorder stopped",
			"camera", r.camera.Name,
			"camera_id", r.camera.ID,
			"session_id", r.sessionID)
		close(r.done)
	}()

	for {
		select {
		case <-r.quit:
			return
		default:
		}

		err := r.recordSegment()

		select {
		case <-r.quit:
			return
		default:
		}

		if err != nil {
			r.transitionState(StateRestarting, "segment failed")
			if r.metrics != nil {
				r.metrics.RecordRestart(r.camera.Name)
			}
			delay := time.Duration(conf.Setting().Recording.RestartDelay) * time.Second
			recorderLogger.Error("segment failed, retrying",
				"camera", r.camera.Name,
				"camera_id", r.camera.ID,
				"url", r.safeURL,
				"retry_in", delay,
				"error", err)

			select {
			case <-r.quit:
				return
			case <-time.After(delay):
			}
		}
	}
}

// recordSegment records one segment: pick a pool, guard free space, register
// the recording, run ffmpeg for the segment duration and finalize the row.
func (r *SegmentRecorder) recordSegment() error {
	settings := conf.Setting()
	start := time.Now()

	r.transitionState(StateStarting, "new segment")

	path, pool, err := r.registry.RecordingPathFor(r.camera.ID, start, datastore.RecordingTypeContinuous, settings.Recording.Format)
	if err != nil {
		return err
	}

	// pre-write guard: evict oldest unlocked recordings if the pool is short
	if _, err := diskmanager.EnsureSpace(pool.Path, estimatedSegmentBytes, r.ds); err != nil {
		return err
	}

	poolID := pool.ID
	rec := &datastore.Recording{
		CameraID:  r.camera.ID,
		PoolID:    &poolID,
		FilePath:  path,
		FileName:  filepath.Base(path),
		StartTime: start,
		Type:      datastore.RecordingTypeContinuous,
		Status:    datastore.RecordingStatusRecording,
	}
	if err := r.ds.CreateRecording(rec); err != nil {
		return err
	}

	ffmpegPath, err := resolveFfmpegPath(settings)
	if err != nil {
		return err
	}

	cmd := exec.Command(ffmpegPath, segmentArgs(settings, r.camera.RTSPUrl, path)...)
	setupProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryCommandExecution).
			Component("recorder").
			Context("operation", "stdin_pipe").
			Build()
	}

	if err := cmd.Start(); err != nil {
		r.failRecording(rec.ID, start)
		return errors.New(err).
			Category(errors.CategoryCommandExecution).
			Component("recorder").
			Context("operation", "ffmpeg_start").
			Context("camera", r.camera.Name).
			Build()
	}

	r.cmdMu.Lock()
	r.cmd = cmd
	r.stdin = stdin
	r.cmdMu.Unlock()

	r.transitionState(StateRecording, "ffmpeg started")
	recorderLogger.Info("segment started",
		"camera", r.camera.Name,
		"camera_id", r.camera.ID,
		"pool", pool.Name,
		"file", rec.FileName,
		"session_id", r.sessionID,
		"pid", cmd.Process.Pid)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var exitErr error
	stopRequested := false
	select {
	case exitErr = <-waitCh:
	case <-r.quit:
		stopRequested = true
		r.transitionState(StateStopping, "stop requested")
		kind := r.stopProcess(cmd, stdin, waitCh)
		if r.metrics != nil {
			r.metrics.RecordProcessStop(r.camera.Name, kind)
		}
		recorderLogger.Info("ffmpeg stopped",
			"camera", r.camera.Name,
			"kind", kind,
			"session_id", r.sessionID)
	}

	r.cmdMu.Lock()
	r.cmd = nil
	r.stdin = nil
	r.cmdMu.Unlock()

	info, finErr := r.finalizeSegment(rec.ID, path, start)
	if finErr != nil {
		recorderLogger.Error("segment finalize failed",
			"camera", r.camera.Name,
			"file", rec.FileName,
			"error", finErr)
	}

	// A non-zero exit during normal operation means the stream broke before
	// the segment duration elapsed. ffmpeg exits zero when -t expires.
	if exitErr != nil && !stopRequested {
		return errors.New(exitErr).
			Category(errors.CategoryRecording).
			Component("recorder").
			Context("camera", r.camera.Name).
			Context("file", rec.FileName).
			Timing("segment", time.Since(start)).
			Build()
	}

	if info.Size > 0 {
		recorderLogger.Info("segment finished",
			"camera", r.camera.Name,
			"file", rec.FileName,
			"duration_s", fmt.Sprintf("%.1f", info.Duration),
			"size_bytes", info.Size)
	}
	return finErr
}

// stopProcess winds down a running ffmpeg. It first asks ffmpeg to finish
// the file by writing "q" to stdin, escalates to terminate after the grace
// period and finally kills the whole process group.
func (r *SegmentRecorder) stopProcess(cmd *exec.Cmd, stdin io.WriteCloser, waitCh <-chan error) string {
	grace := time.Duration(conf.Setting().Recording.GracefulStopPeriod) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}

	if stdin != nil {
		if _, err := stdin.Write([]byte("q")); err == nil {
			select {
			case <-waitCh:
				return stopGraceful
			case <-time.After(grace):
			}
		}
	}

	if err := terminateProcess(cmd); err == nil {
		select {
		case <-waitCh:
			return stopTerminated
		case <-time.After(grace):
		}
	}

	if err := killProcessGroup(cmd); err != nil {
		recorderLogger.Error("failed to kill ffmpeg process group",
			"camera", r.camera.Name,
			"error", err)
	}
	<-waitCh
	return stopKilled
}

// finalizeSegment closes the recording row with the observed end time, file
// size and duration. A segment whose file never appeared is marked failed.
func (r *SegmentRecorder) finalizeSegment(recordingID uint, path string, start time.Time) (SegmentInfo, error) {
	end := time.Now()
	info := SegmentInfo{
		Path:     path,
		Start:    start,
		End:      end,
		Duration: end.Sub(start).Seconds(),
	}

	status := datastore.RecordingStatusCompleted
	if stat, err := os.Stat(path); err == nil {
		info.Size = stat.Size()
	} else {
		status = datastore.RecordingStatusFailed
	}

	if r.metrics != nil {
		r.metrics.RecordSegment(r.camera.Name, status, info.Duration, info.Size)
	}

	if err := r.ds.FinalizeRecording(recordingID, end, info.Size, info.Duration, status); err != nil {
		return info, err
	}
	return info, nil
}

// failRecording marks a recording row failed when ffmpeg never started.
func (r *SegmentRecorder) failRecording(recordingID uint, start time.Time) {
	if err := r.ds.FinalizeRecording(recordingID, start, 0, 0, datastore.RecordingStatusFailed); err != nil {
		recorderLogger.Error("failed to mark recording as failed",
			"recording_id", recordingID,
			"error", err)
	}
}

// transitionState applies a state change with validation. Invalid transitions
// are logged and applied anyway; Stopped is terminal and never left.
func (r *SegmentRecorder) transitionState(to ProcessState, reason string) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	from := r.state
	if from == to {
		return
	}
	if from == StateStopped {
		recorderLogger.Warn("blocked transition out of terminal state",
			"camera", r.camera.Name,
			"from", from.String(),
			"to", to.String(),
			"reason", reason)
		return
	}
	if !isValidTransition(from, to) && conf.Setting().Debug {
		recorderLogger.Warn("invalid state transition, applying anyway",
			"camera", r.camera.Name,
			"from", from.String(),
			"to", to.String(),
			"reason", reason)
	}

	r.state = to
	r.history = append(r.history, StateTransition{
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Reason:    reason,
	})
	if len(r.history) > maxStateHistory {
		r.history = r.history[len(r.history)-maxStateHistory:]
	}
}

// segmentArgs builds the ffmpeg arguments for one copy-codec segment.
func segmentArgs(settings *conf.Settings, rtspURL, outputPath string) []string {
	transport := settings.Recording.Transport
	if transport == "" {
		transport = "tcp"
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-rtsp_transport", transport,
		"-use_wallclock_as_timestamps", "1",
		"-i", rtspURL,
		"-c:v", "copy",
		"-c:a", "copy",
		"-t", strconv.Itoa(settings.Recording.SegmentDuration),
		"-y",
		outputPath,
	}
}

// resolveFfmpegPath returns the ffmpeg binary to use. An explicitly
// configured path must exist; otherwise PATH is searched.
func resolveFfmpegPath(settings *conf.Settings) (string, error) {
	if configured := settings.Recording.FfmpegPath; configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", errors.Newf("configured ffmpeg binary not found: %s", configured).
				Category(errors.CategoryValidation).
				Component("recorder").
				Context("path", configured).
				Build()
		}
		return configured, nil
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryValidation).
			Component("recorder").
			Context("operation", "resolve_ffmpeg").
			Build()
	}
	return path, nil
}
