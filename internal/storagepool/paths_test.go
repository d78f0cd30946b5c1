package storagepool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentFileName(t *testing.T) {
	ts := time.Date(2025, time.January, 14, 15, 30, 0, 0, time.Local)
	assert.Equal(t, "camera_3_20250114_153000.mkv", SegmentFileName(3, ts, "mkv"))
	assert.Equal(t, "camera_12_20250114_153000.mp4", SegmentFileName(12, ts, "mp4"))
}

func TestRecordingDirLayout(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 8, 5, 9, 0, time.Local)
	dir := RecordingDir("/srv/pool1", 7, "continuous", ts)
	assert.Equal(t, filepath.Join("/srv/pool1", "camera_7", "continuous", "2025", "03", "07"), dir)
}

func TestEnsureRecordingDirCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	ts := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local)

	path, err := EnsureRecordingDir(base, 2, "continuous", ts, "mkv")
	require.NoError(t, err)

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "camera_2_20250601_000000.mkv", filepath.Base(path))
}
