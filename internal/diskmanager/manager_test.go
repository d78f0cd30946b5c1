package diskmanager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsentry/camsentry/internal/conf"
)

// testSettings points the global storage settings at a throwaway directory
// with both retention policies disabled.
func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Storage.Path = t.TempDir()
	conf.SetSettings(settings)
	return settings
}

func TestRunCleanupIncludesPoolResults(t *testing.T) {
	testSettings(t)
	m := NewManager(&MockDB{})

	called := false
	m.SetPoolCleanup(func(quit <-chan struct{}) []CleanupResult {
		called = true
		return []CleanupResult{{Policy: "age", FilesDeleted: 2, BytesFreed: 64}}
	})

	results := m.RunCleanup(make(chan struct{}))

	// age, size, plus the pool pass
	assert.True(t, called)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[2].FilesDeleted)
}

func TestRunCleanupAccumulatesPoolStats(t *testing.T) {
	testSettings(t)
	m := NewManager(&MockDB{})

	m.SetPoolCleanup(func(quit <-chan struct{}) []CleanupResult {
		return []CleanupResult{{Policy: "age", FilesDeleted: 2, BytesFreed: 64}}
	})

	m.RunCleanup(make(chan struct{}))

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.FilesDeleted)
	assert.Equal(t, int64(64), stats.BytesFreed)
	assert.False(t, stats.LastCleanup.IsZero())
}

func TestStorageInfoCountsRecordings(t *testing.T) {
	settings := testSettings(t)

	createRecordingFile(t, settings.Storage.Path, "camera_1_20260829_120000.mkv")
	createRecordingFile(t, settings.Storage.Path, "camera_2_20260829_120500.mp4")
	createRecordingFile(t, settings.Storage.Path, "notes.txt") // not a recording

	m := NewManager(&MockDB{})
	info := m.StorageInfo()

	assert.Equal(t, 2, info.RecordingsCount)
	assert.Equal(t, int64(2), info.RecordingsBytes)
	assert.NotZero(t, info.TotalBytes)
	assert.NotZero(t, info.FreeBytes)
}

func TestStorageInfoMissingPathDegradesToZeros(t *testing.T) {
	settings := &conf.Settings{}
	settings.Storage.Path = filepath.Join(t.TempDir(), "does-not-exist")
	conf.SetSettings(settings)

	m := NewManager(&MockDB{})
	info := m.StorageInfo()

	assert.Zero(t, info.TotalBytes)
	assert.Zero(t, info.RecordingsCount)
	assert.Zero(t, info.RecordingsBytes)
}
