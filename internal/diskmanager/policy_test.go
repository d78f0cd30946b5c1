package diskmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stuckFile returns a path whose removal fails: a directory that still has
// content cannot be os.Remove'd.
func stuckFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segment.part"), []byte("x"), 0o644))
	return dir
}

// makeFiles builds synthetic FileInfo entries with ascending timestamps,
// oldest first. Sizes are taken verbatim, paths do not need to exist on
// disk because deletion treats missing files as already removed.
func makeFiles(t *testing.T, count int, size int64) []FileInfo {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)
	files := make([]FileInfo, 0, count)
	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i) * 5 * time.Minute)
		files = append(files, FileInfo{
			Path:      fmt.Sprintf("/data/recordings/camera_1/continuous/2026/08/01/camera_1_%s.mkv", ts.Format("20060102_150405")),
			CameraID:  1,
			Timestamp: ts,
			Size:      size,
		})
	}
	return files
}

func TestPerformSizeCleanupEvictsOldestUntilBudgetFits(t *testing.T) {
	db := &MockDB{}
	quit := make(chan struct{})

	// Five 3 GB segments against a 10 GB budget: exactly two evictions
	files := makeFiles(t, 5, 3_000_000_000)
	oldest := files[0].Path
	secondOldest := files[1].Path

	result, err := performSizeCleanup(files, 10_000_000_000, db, false, quit)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, int64(6_000_000_000), result.BytesFreed)
	assert.Equal(t, []string{oldest, secondOldest}, db.deletedPaths)
	assert.Equal(t, 3, result.RemainingFiles)
	assert.Equal(t, int64(9_000_000_000), result.RemainingBytes)
}

func TestPerformSizeCleanupContinuesPastDeleteFailure(t *testing.T) {
	db := &MockDB{}

	// Nine GB against a three GB budget with the oldest file undeletable:
	// eviction must move on and still reach the budget
	files := makeFiles(t, 3, 3_000_000_000)
	files[0].Path = stuckFile(t)

	result, err := performSizeCleanup(files, 3_000_000_000, db, false, make(chan struct{}))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{files[1].Path, files[2].Path}, db.deletedPaths)
}

func TestPerformSizeCleanupWithinBudgetDoesNothing(t *testing.T) {
	db := &MockDB{}
	files := makeFiles(t, 3, 1_000_000_000)

	result, err := performSizeCleanup(files, 10_000_000_000, db, false, make(chan struct{}))
	require.NoError(t, err)
	assert.Zero(t, result.FilesDeleted)
	assert.Empty(t, db.deletedPaths)
}

func TestPerformSizeCleanupSkipsLocked(t *testing.T) {
	db := &MockDB{}

	// The two oldest segments are locked, eviction must jump past them
	files := makeFiles(t, 5, 3_000_000_000)
	files[0].Locked = true
	files[1].Locked = true
	third := files[2].Path
	fourth := files[3].Path

	result, err := performSizeCleanup(files, 10_000_000_000, db, false, make(chan struct{}))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, []string{third, fourth}, db.deletedPaths)
}

func TestPerformSizeCleanupAllLocked(t *testing.T) {
	db := &MockDB{}

	files := makeFiles(t, 3, 3_000_000_000)
	for i := range files {
		files[i].Locked = true
	}

	result, err := performSizeCleanup(files, 1_000_000_000, db, false, make(chan struct{}))
	require.NoError(t, err)
	assert.Zero(t, result.FilesDeleted)
	assert.Equal(t, 3, result.Skipped)
	assert.Empty(t, db.deletedPaths)
}

func TestPerformSizeCleanupQuitSignal(t *testing.T) {
	db := &MockDB{}
	quit := make(chan struct{})
	close(quit)

	files := makeFiles(t, 5, 3_000_000_000)

	result, err := performSizeCleanup(files, 1_000_000_000, db, false, quit)
	require.NoError(t, err)
	assert.Zero(t, result.FilesDeleted)
}

func TestPerformAgeCleanupDeletesOnlyExpired(t *testing.T) {
	db := &MockDB{}

	files := makeFiles(t, 4, 1_000_000_000)
	// Cut between the second and third file
	expiration := files[1].Timestamp.Add(time.Minute)

	result, err := performAgeCleanup(files, expiration, db, false, make(chan struct{}))
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, int64(2_000_000_000), result.BytesFreed)
	assert.Equal(t, []string{files[0].Path, files[1].Path}, db.deletedPaths)
	assert.Equal(t, 2, result.RemainingFiles)
	assert.Equal(t, int64(2_000_000_000), result.RemainingBytes)
}

func TestPerformAgeCleanupContinuesPastDeleteFailure(t *testing.T) {
	db := &MockDB{}

	files := makeFiles(t, 2, 1_000_000_000)
	files[0].Path = stuckFile(t)
	expiration := time.Now() // everything is expired

	result, err := performAgeCleanup(files, expiration, db, false, make(chan struct{}))
	require.NoError(t, err)

	// The undeletable file is skipped, the pass still reclaims the rest
	assert.Equal(t, 1, result.FilesDeleted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{files[1].Path}, db.deletedPaths)
}

func TestPerformAgeCleanupNeverDeletesLocked(t *testing.T) {
	db := &MockDB{}

	files := makeFiles(t, 2, 1_000_000_000)
	files[0].Locked = true
	expiration := time.Now() // everything is expired

	result, err := performAgeCleanup(files, expiration, db, false, make(chan struct{}))
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesDeleted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{files[1].Path}, db.deletedPaths)
}

func TestSortOldestFirstIsDeterministic(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)
	files := []FileInfo{
		{Path: "/b", Timestamp: ts},
		{Path: "/a", Timestamp: ts},
		{Path: "/c", Timestamp: ts.Add(-time.Hour)},
	}

	sortOldestFirst(files)

	assert.Equal(t, "/c", files[0].Path)
	assert.Equal(t, "/a", files[1].Path)
	assert.Equal(t, "/b", files[2].Path)
}

func TestTotalSize(t *testing.T) {
	files := makeFiles(t, 3, 2_500_000_000)
	assert.Equal(t, int64(7_500_000_000), totalSize(files))
}
