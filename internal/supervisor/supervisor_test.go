package supervisor

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRecorderManager records start/stop calls without spawning processes.
type fakeRecorderManager struct {
	mu      sync.Mutex
	active  map[uint]bool
	failFor map[uint]bool
	starts  int
	stops   int
}

func newFakeRecorderManager() *fakeRecorderManager {
	return &fakeRecorderManager{
		active:  make(map[uint]bool),
		failFor: make(map[uint]bool),
	}
}

func (f *fakeRecorderManager) StartRecorder(camera datastore.Camera) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.failFor[camera.ID] {
		return errors.Newf("start failed").Category(errors.CategoryRecording).Build()
	}
	f.active[camera.ID] = true
	return nil
}

func (f *fakeRecorderManager) StopRecorder(cameraID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	delete(f.active, cameraID)
}

func (f *fakeRecorderManager) IsRecording(cameraID uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[cameraID]
}

func (f *fakeRecorderManager) ActiveCameras() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint, 0, len(f.active))
	for id := range f.active {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeRecorderManager) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.active {
		delete(f.active, id)
		f.stops++
	}
}

func newTestSupervisor(t *testing.T) (*Supervisor, datastore.Interface, *fakeRecorderManager) {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	settings.Supervisor.PollInterval = 1
	settings.Supervisor.StartupDelay = 0
	conf.SetSettings(settings)

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	recorders := newFakeRecorderManager()
	return New(ds, recorders), ds, recorders
}

func addCamera(t *testing.T, ds datastore.Interface, name, status string, enabled bool) *datastore.Camera {
	t.Helper()
	camera := &datastore.Camera{
		Name:    name,
		RTSPUrl: "rtsp://cam.local/" + name,
		Enabled: enabled,
		Status:  status,
	}
	require.NoError(t, ds.SaveCamera(camera))
	return camera
}

func TestReconcileStartsEnabledOnlineCameras(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)

	online := addCamera(t, ds, "online", datastore.CameraStatusOnline, true)
	offline := addCamera(t, ds, "offline", datastore.CameraStatusOffline, true)
	disabled := addCamera(t, ds, "disabled", datastore.CameraStatusOnline, false)
	erroring := addCamera(t, ds, "erroring", datastore.CameraStatusError, true)

	require.NoError(t, sup.Reconcile())

	assert.True(t, recorders.IsRecording(online.ID))
	assert.False(t, recorders.IsRecording(offline.ID))
	assert.False(t, recorders.IsRecording(disabled.ID))
	assert.False(t, recorders.IsRecording(erroring.ID))

	// a started camera moves to recording status and carries the flag
	saved, err := ds.GetCamera(online.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.CameraStatusRecording, saved.Status)
	assert.True(t, saved.IsRecording)

	saved, err = ds.GetCamera(offline.ID)
	require.NoError(t, err)
	assert.False(t, saved.IsRecording)
}

func TestReconcileIsLevelTriggered(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)
	camera := addCamera(t, ds, "cam", datastore.CameraStatusOnline, true)

	require.NoError(t, sup.Reconcile())
	require.NoError(t, sup.Reconcile())
	require.NoError(t, sup.Reconcile())

	// already-recording cameras are not restarted on later passes
	assert.Equal(t, 1, recorders.starts)
	assert.True(t, recorders.IsRecording(camera.ID))
}

func TestReconcileStopsWhenCameraGoesOffline(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)
	camera := addCamera(t, ds, "cam", datastore.CameraStatusOnline, true)

	require.NoError(t, sup.Reconcile())
	require.True(t, recorders.IsRecording(camera.ID))

	require.NoError(t, ds.UpdateCameraStatus(camera.ID, datastore.CameraStatusOffline))
	require.NoError(t, sup.Reconcile())

	assert.False(t, recorders.IsRecording(camera.ID))
}

func TestReconcileStopsDisabledCamera(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)
	camera := addCamera(t, ds, "cam", datastore.CameraStatusOnline, true)

	require.NoError(t, sup.Reconcile())
	require.True(t, recorders.IsRecording(camera.ID))

	saved, err := ds.GetCamera(camera.ID)
	require.NoError(t, err)
	saved.Enabled = false
	require.NoError(t, ds.SaveCamera(&saved))

	require.NoError(t, sup.Reconcile())
	assert.False(t, recorders.IsRecording(camera.ID))

	// a disabled camera ends up offline, not online
	saved, err = ds.GetCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.CameraStatusOffline, saved.Status)
}

func TestReconcileStopsOrphanedRecorders(t *testing.T) {
	sup, _, recorders := newTestSupervisor(t)

	// recorder active for a camera that is not in the database
	recorders.active[99] = true

	require.NoError(t, sup.Reconcile())
	assert.False(t, recorders.IsRecording(99))
}

func TestReconcileSurvivesStartFailure(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)

	failing := addCamera(t, ds, "failing", datastore.CameraStatusOnline, true)
	working := addCamera(t, ds, "working", datastore.CameraStatusOnline, true)
	recorders.failFor[failing.ID] = true

	require.NoError(t, sup.Reconcile())

	assert.False(t, recorders.IsRecording(failing.ID))
	assert.True(t, recorders.IsRecording(working.ID))

	// the failed camera keeps its status so the next pass retries
	saved, err := ds.GetCamera(failing.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.CameraStatusOnline, saved.Status)
}

func TestManualStartAndStop(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)
	camera := addCamera(t, ds, "cam", datastore.CameraStatusOnline, true)

	require.NoError(t, sup.StartCameraRecording(camera.ID))
	assert.True(t, recorders.IsRecording(camera.ID))

	saved, err := ds.GetCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.CameraStatusRecording, saved.Status)
	assert.True(t, saved.IsRecording)

	require.NoError(t, sup.StopCameraRecording(camera.ID))
	assert.False(t, recorders.IsRecording(camera.ID))

	saved, err = ds.GetCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.CameraStatusOnline, saved.Status)
	assert.False(t, saved.IsRecording)
}

func TestManualStartUnknownCamera(t *testing.T) {
	sup, _, _ := newTestSupervisor(t)
	assert.Error(t, sup.StartCameraRecording(12345))
}

func TestStartStopLifecycle(t *testing.T) {
	sup, ds, recorders := newTestSupervisor(t)
	camera := addCamera(t, ds, "cam", datastore.CameraStatusOnline, true)

	sup.Start()
	// second start is a no-op
	sup.Start()

	require.Eventually(t, func() bool {
		return recorders.IsRecording(camera.ID)
	}, 5*time.Second, 50*time.Millisecond)

	sup.Stop()
	assert.False(t, recorders.IsRecording(camera.ID))

	// stop after stop is a no-op
	sup.Stop()
}
