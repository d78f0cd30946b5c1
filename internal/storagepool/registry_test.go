package storagepool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
)

func newTestRegistry(t *testing.T) (*Registry, datastore.Interface) {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	return NewRegistry(ds), ds
}

// availablePool returns a pool that passes the availability check without a
// stats refresh.
func availablePool(t *testing.T, name string, priority int) *datastore.StoragePool {
	t.Helper()
	return &datastore.StoragePool{
		Name:      name,
		Path:      filepath.Join(t.TempDir(), name),
		Enabled:   true,
		Status:    datastore.PoolStatusActive,
		Priority:  priority,
		MinFreeGB: 10,
		FreeGB:    100,
	}
}

func TestCreatePoolCreatesDirectory(t *testing.T) {
	registry, _ := newTestRegistry(t)

	path := filepath.Join(t.TempDir(), "nested", "pool")
	pool := &datastore.StoragePool{Name: "main", Path: path, Enabled: true}
	require.NoError(t, registry.CreatePool(pool, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	saved, err := registry.GetPoolByName("main")
	require.NoError(t, err)
	assert.True(t, saved.Default)
	assert.Equal(t, datastore.PoolStatusActive, saved.Status)
}

func TestCreatePoolValidation(t *testing.T) {
	registry, _ := newTestRegistry(t)

	err := registry.CreatePool(&datastore.StoragePool{Name: "", Path: ""}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool name must not be empty")

	err = registry.CreatePool(&datastore.StoragePool{
		Name:      "bad",
		Path:      t.TempDir(),
		MinFreeGB: -1,
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum free space")

	err = registry.CreatePool(&datastore.StoragePool{
		Name:      "bad",
		Path:      t.TempDir(),
		MaxSizeGB: -1,
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size budget")
}

func TestGetDefaultPoolFallsBackToLowestPriority(t *testing.T) {
	registry, _ := newTestRegistry(t)

	slow := availablePool(t, "slow", 5)
	fast := availablePool(t, "fast", 1)
	require.NoError(t, registry.CreatePool(slow, false))
	require.NoError(t, registry.CreatePool(fast, false))

	// no pool carries the default flag, the lowest priority enabled pool wins
	def, err := registry.GetDefaultPool()
	require.NoError(t, err)
	assert.Equal(t, "fast", def.Name)

	// an explicit default beats the fallback
	require.NoError(t, registry.SetDefaultPool(slow.ID))
	def, err = registry.GetDefaultPool()
	require.NoError(t, err)
	assert.Equal(t, "slow", def.Name)
}

func TestGetDefaultPoolNoEnabledPools(t *testing.T) {
	registry, _ := newTestRegistry(t)

	disabled := availablePool(t, "off", 0)
	disabled.Enabled = false
	require.NoError(t, registry.CreatePool(disabled, false))

	_, err := registry.GetDefaultPool()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default storage pool")
}

func TestSetDefaultPoolDemotesPrevious(t *testing.T) {
	registry, _ := newTestRegistry(t)

	first := availablePool(t, "first", 0)
	second := availablePool(t, "second", 1)
	require.NoError(t, registry.CreatePool(first, true))
	require.NoError(t, registry.CreatePool(second, false))

	require.NoError(t, registry.SetDefaultPool(second.ID))

	def, err := registry.GetDefaultPool()
	require.NoError(t, err)
	assert.Equal(t, "second", def.Name)

	old, err := registry.GetPool(first.ID)
	require.NoError(t, err)
	assert.False(t, old.Default)
}

func TestDeletePoolRefusesDefault(t *testing.T) {
	registry, _ := newTestRegistry(t)

	pool := availablePool(t, "main", 0)
	require.NoError(t, registry.CreatePool(pool, true))

	err := registry.DeletePool(pool.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default pool")

	other := availablePool(t, "other", 1)
	require.NoError(t, registry.CreatePool(other, false))
	require.NoError(t, registry.DeletePool(other.ID))

	_, err = registry.GetPool(other.ID)
	assert.Error(t, err)
}

func TestGetBestAvailablePoolOrdering(t *testing.T) {
	registry, ds := newTestRegistry(t)

	fast := availablePool(t, "fast", 0)
	slow := availablePool(t, "slow", 5)
	require.NoError(t, registry.CreatePool(fast, false))
	require.NoError(t, registry.CreatePool(slow, false))

	best, err := registry.GetBestAvailablePool()
	require.NoError(t, err)
	assert.Equal(t, "fast", best.Name)

	// pools below their free space minimum are skipped
	require.NoError(t, ds.UpdatePoolStats(fast.ID, 100, 95, 5))
	best, err = registry.GetBestAvailablePool()
	require.NoError(t, err)
	assert.Equal(t, "slow", best.Name)

	// disabled pools are never candidates
	slowSaved, err := registry.GetPool(slow.ID)
	require.NoError(t, err)
	slowSaved.Enabled = false
	require.NoError(t, registry.UpdatePool(&slowSaved))

	_, err = registry.GetBestAvailablePool()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no storage pool")
}

func TestSelectPoolForCamera(t *testing.T) {
	registry, ds := newTestRegistry(t)

	defaultPool := availablePool(t, "default", 0)
	assigned := availablePool(t, "assigned", 5)
	require.NoError(t, registry.CreatePool(defaultPool, true))
	require.NoError(t, registry.CreatePool(assigned, false))

	camera := &datastore.Camera{Name: "front", RTSPUrl: "rtsp://cam/stream", Enabled: true}
	require.NoError(t, ds.SaveCamera(camera))

	// no assignments: the default pool wins even over lower priority pools
	pool, reason, err := registry.SelectPoolForCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, "default", pool.Name)
	assert.Equal(t, ReasonDefault, reason)

	// a primary assignment takes precedence over the default
	require.NoError(t, registry.AssignCameraToPool(camera.ID, assigned.ID, true))
	pool, reason, err = registry.SelectPoolForCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, "assigned", pool.Name)
	assert.Equal(t, ReasonAssigned, reason)

	// when the assigned pool fills up the default takes over again
	require.NoError(t, ds.UpdatePoolStats(assigned.ID, 100, 98, 2))
	pool, reason, err = registry.SelectPoolForCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, "default", pool.Name)
	assert.Equal(t, ReasonDefault, reason)

	// with default unavailable too, fall back to best available by priority
	require.NoError(t, ds.UpdatePoolStats(defaultPool.ID, 100, 99, 1))
	spare := availablePool(t, "spare", 9)
	require.NoError(t, registry.CreatePool(spare, false))
	pool, reason, err = registry.SelectPoolForCamera(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, "spare", pool.Name)
	assert.Equal(t, ReasonBestAvailable, reason)

	// nothing available at all is an error
	require.NoError(t, ds.UpdatePoolStats(spare.ID, 100, 99, 1))
	require.NoError(t, ds.UpdatePoolStats(assigned.ID, 100, 99, 1))
	_, _, err = registry.SelectPoolForCamera(camera.ID)
	require.Error(t, err)
}

func TestRefreshPoolStatusTransitions(t *testing.T) {
	registry, _ := newTestRegistry(t)

	pool := availablePool(t, "main", 0)
	pool.MinFreeGB = 10
	require.NoError(t, registry.CreatePool(pool, true))

	orig := diskStats
	t.Cleanup(func() { diskStats = orig })

	// plenty of free space keeps the pool active
	diskStats = func(string) (diskmanager.DiskSpaceInfo, error) {
		return diskmanager.DiskSpaceInfo{
			TotalBytes: 200 << 30,
			UsedBytes:  100 << 30,
			FreeBytes:  100 << 30,
		}, nil
	}
	require.NoError(t, registry.RefreshPool(pool))
	assert.Equal(t, datastore.PoolStatusActive, pool.Status)
	assert.InDelta(t, 200, pool.TotalGB, 0.01)
	assert.InDelta(t, 100, pool.FreeGB, 0.01)

	// dropping below the minimum marks the pool full
	diskStats = func(string) (diskmanager.DiskSpaceInfo, error) {
		return diskmanager.DiskSpaceInfo{
			TotalBytes: 200 << 30,
			UsedBytes:  195 << 30,
			FreeBytes:  5 << 30,
		}, nil
	}
	require.NoError(t, registry.RefreshPool(pool))
	assert.Equal(t, datastore.PoolStatusFull, pool.Status)
	assert.False(t, pool.IsAvailable())

	saved, err := registry.GetPool(pool.ID)
	require.NoError(t, err)
	assert.Equal(t, datastore.PoolStatusFull, saved.Status)
	assert.InDelta(t, 5, saved.FreeGB, 0.01)
	require.NotNil(t, saved.StatsAt)

	// space coming back restores the pool to active
	diskStats = func(string) (diskmanager.DiskSpaceInfo, error) {
		return diskmanager.DiskSpaceInfo{
			TotalBytes: 200 << 30,
			UsedBytes:  50 << 30,
			FreeBytes:  150 << 30,
		}, nil
	}
	require.NoError(t, registry.RefreshPool(pool))
	assert.Equal(t, datastore.PoolStatusActive, pool.Status)
	assert.True(t, pool.IsAvailable())
}

func TestRefreshPoolMissingPath(t *testing.T) {
	registry, _ := newTestRegistry(t)

	pool := availablePool(t, "gone", 0)
	require.NoError(t, registry.CreatePool(pool, false))
	require.NoError(t, os.RemoveAll(pool.Path))

	require.NoError(t, registry.RefreshPool(pool))
	assert.Equal(t, datastore.PoolStatusError, pool.Status)
	assert.False(t, pool.IsAvailable())
}

func TestRefreshPoolDisabledGoesInactive(t *testing.T) {
	registry, _ := newTestRegistry(t)

	pool := availablePool(t, "spare", 0)
	pool.Enabled = false
	require.NoError(t, registry.CreatePool(pool, false))

	orig := diskStats
	t.Cleanup(func() { diskStats = orig })
	diskStats = func(string) (diskmanager.DiskSpaceInfo, error) {
		return diskmanager.DiskSpaceInfo{
			TotalBytes: 100 << 30,
			UsedBytes:  10 << 30,
			FreeBytes:  90 << 30,
		}, nil
	}

	require.NoError(t, registry.RefreshPool(pool))
	assert.Equal(t, datastore.PoolStatusInactive, pool.Status)
}

func TestCleanupPoolsAppliesPerPoolRetention(t *testing.T) {
	registry, ds := newTestRegistry(t)

	pool := availablePool(t, "retained", 0)
	pool.RetentionDays = 7
	require.NoError(t, registry.CreatePool(pool, false))

	old := filepath.Join(pool.Path, "camera_1_20200101_120000.mkv")
	recent := filepath.Join(pool.Path, "camera_1_20990101_120000.mkv")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("new"), 0o644))

	results, err := registry.CleanupPools(nil, ds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].FilesDeleted)

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)

	count, bytes, err := registry.CountRecordings(pool)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(3), bytes)
}

func TestCleanupPoolsEnforcesSizeBudget(t *testing.T) {
	registry, ds := newTestRegistry(t)

	pool := availablePool(t, "bounded", 0)
	// budget of eight bytes expressed in GB so tiny test files exercise it
	pool.MaxSizeGB = 8.0 / float64(bytesPerGB)
	require.NoError(t, registry.CreatePool(pool, false))

	oldest := filepath.Join(pool.Path, "camera_1_20200101_120000.mkv")
	middle := filepath.Join(pool.Path, "camera_1_20210101_120000.mkv")
	newest := filepath.Join(pool.Path, "camera_1_20220101_120000.mkv")
	for _, p := range []string{oldest, middle, newest} {
		require.NoError(t, os.WriteFile(p, []byte("vvvv"), 0o644))
	}

	results, err := registry.CleanupPools(nil, ds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].FilesDeleted)
	assert.Equal(t, int64(4), results[0].BytesFreed)
	assert.Equal(t, 2, results[0].RemainingFiles)
	assert.Equal(t, int64(8), results[0].RemainingBytes)

	// FIFO eviction: only the oldest file goes
	assert.NoFileExists(t, oldest)
	assert.FileExists(t, middle)
	assert.FileExists(t, newest)
}

func TestCleanupPoolsSkipsPoolsWithoutRetention(t *testing.T) {
	registry, ds := newTestRegistry(t)

	pool := availablePool(t, "unretained", 0)
	require.NoError(t, registry.CreatePool(pool, false))

	old := filepath.Join(pool.Path, "camera_1_20200101_120000.mkv")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))

	results, err := registry.CleanupPools(nil, ds)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.FileExists(t, old)
}
