package diskmanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockDB is a mock implementation of the database interface for testing
type MockDB struct {
	lockedPaths  []string
	deletedPaths []string
}

// GetLockedRecordingPaths returns the configured locked paths
func (m *MockDB) GetLockedRecordingPaths() ([]string, error) {
	return m.lockedPaths, nil
}

// MarkRecordingDeleted records which paths were flagged as deleted
func (m *MockDB) MarkRecordingDeleted(path string) error {
	m.deletedPaths = append(m.deletedPaths, path)
	return nil
}

// createRecordingFile creates an empty file with the given name in dir
func createRecordingFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestParseFileInfo(t *testing.T) {
	testDir := t.TempDir()

	tests := []struct {
		name       string
		fileName   string
		wantCamera uint
		wantTime   time.Time
		wantErr    bool
	}{
		{
			name:       "valid name",
			fileName:   "camera_3_20260829_143000.mkv",
			wantCamera: 3,
			wantTime:   time.Date(2026, 8, 29, 14, 30, 0, 0, time.Local),
		},
		{
			name:       "valid name mp4",
			fileName:   "camera_12_20250101_000000.mp4",
			wantCamera: 12,
			wantTime:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name:     "missing camera prefix",
			fileName: "clip_3_20260829_143000.mkv",
			wantErr:  true,
		},
		{
			name:     "too few parts",
			fileName: "camera_3_20260829.mkv",
			wantErr:  true,
		},
		{
			name:     "non-numeric camera id",
			fileName: "camera_front_20260829_143000.mkv",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createRecordingFile(t, testDir, tt.fileName)
			info, err := os.Stat(path)
			require.NoError(t, err)

			got, err := parseFileInfo(path, info)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCamera, got.CameraID)
			assert.True(t, tt.wantTime.Equal(got.Timestamp), "want %v got %v", tt.wantTime, got.Timestamp)
		})
	}
}

func TestParseFileInfoBadTimestampFallsBackToModTime(t *testing.T) {
	testDir := t.TempDir()

	path := createRecordingFile(t, testDir, "camera_1_20261301_990000.mkv")
	info, err := os.Stat(path)
	require.NoError(t, err)

	got, err := parseFileInfo(path, info)
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(info.ModTime()))
}

func TestGetVideoFilesSkipsForeignFiles(t *testing.T) {
	testDir := t.TempDir()
	db := &MockDB{}

	createRecordingFile(t, testDir, "camera_1_20260829_120000.mkv")
	createRecordingFile(t, testDir, "sub/camera_2_20260829_130000.mp4")
	createRecordingFile(t, testDir, "notes.txt")
	createRecordingFile(t, testDir, "vacation.mkv") // unrecognized name, never deleted

	files, err := GetVideoFiles(testDir, allowedFileTypes, db, false)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGetVideoFilesMarksLocked(t *testing.T) {
	testDir := t.TempDir()

	lockedPath := createRecordingFile(t, testDir, "camera_1_20260829_120000.mkv")
	createRecordingFile(t, testDir, "camera_1_20260829_120500.mkv")

	db := &MockDB{lockedPaths: []string{lockedPath}}

	files, err := GetVideoFiles(testDir, allowedFileTypes, db, false)
	require.NoError(t, err)
	require.Len(t, files, 2)

	lockedCount := 0
	for _, f := range files {
		if f.Locked {
			lockedCount++
			assert.Equal(t, lockedPath, f.Path)
		}
	}
	assert.Equal(t, 1, lockedCount)
}

func TestGetVideoFilesNilDB(t *testing.T) {
	_, err := GetVideoFiles(t.TempDir(), allowedFileTypes, nil, false)
	assert.Error(t, err)
}
