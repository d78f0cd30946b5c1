// paths.go - recording directory layout and segment file naming
package storagepool

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/errors"
)

// timestampLayout is the wall-clock timestamp embedded in segment file names.
// The disk manager parses the same layout back out when scanning pools.
const timestampLayout = "20060102_150405"

// SegmentFileName returns the file name for a segment that starts at t,
// e.g. camera_3_20250114_153000.mkv.
func SegmentFileName(cameraID uint, t time.Time, ext string) string {
	return fmt.Sprintf("camera_%d_%s.%s", cameraID, t.Format(timestampLayout), ext)
}

// RecordingDir returns the directory for a camera's recordings of the given
// type under a pool, partitioned by date: <pool>/camera_<id>/<type>/<YYYY>/<MM>/<DD>.
func RecordingDir(poolPath string, cameraID uint, recordingType string, t time.Time) string {
	return filepath.Join(poolPath,
		fmt.Sprintf("camera_%d", cameraID),
		recordingType,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()))
}

// EnsureRecordingDir builds the recording directory for the segment and
// creates it on disk, returning the full target file path.
func EnsureRecordingDir(poolPath string, cameraID uint, recordingType string, t time.Time, ext string) (string, error) {
	dir := RecordingDir(poolPath, cameraID, recordingType, t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryFileIO).
			Component("storagepool").
			Context("operation", "ensure_recording_dir").
			Context("path", dir).
			Build()
	}
	return filepath.Join(dir, SegmentFileName(cameraID, t, ext)), nil
}

// RecordingPathFor selects a pool for the camera and returns the full target
// path for a segment starting at t, creating the directory tree on the way.
func (r *Registry) RecordingPathFor(cameraID uint, t time.Time, recordingType, ext string) (string, datastore.StoragePool, error) {
	pool, _, err := r.SelectPoolForCamera(cameraID)
	if err != nil {
		return "", datastore.StoragePool{}, err
	}
	path, err := EnsureRecordingDir(pool.Path, cameraID, recordingType, t, ext)
	if err != nil {
		return "", datastore.StoragePool{}, err
	}
	return path, pool, nil
}
