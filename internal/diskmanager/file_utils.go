// file_utils.go - shared file management code
package diskmanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"
)

// allowedFileTypes is the list of file extensions that are allowed to be deleted
var allowedFileTypes = []string{".mkv", ".mp4", ".avi", ".webm"}

// FileInfo holds information about a recording file on disk
type FileInfo struct {
	Path      string
	CameraID  uint
	Timestamp time.Time // segment start time embedded in the file name
	Size      int64
	Locked    bool
}

// Interface represents the minimal database interface needed for diskmanager
type Interface interface {
	GetLockedRecordingPaths() ([]string, error)
	MarkRecordingDeleted(path string) error
}

// GetVideoFiles returns the recording files under baseDir and its
// subdirectories. Files whose names do not follow the recording naming
// scheme are skipped entirely so they are never deleted by cleanup.
func GetVideoFiles(baseDir string, allowedExts []string, db Interface, debug bool) ([]FileInfo, error) {
	var files []FileInfo

	lockedPaths, err := getLockedPaths(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get locked recordings: %w", err)
	}

	if debug && diskLogger != nil {
		diskLogger.Debug("Collected locked recordings", "count", len(lockedPaths))
	}

	err = filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			ext := filepath.Ext(info.Name())
			if slices.Contains(allowedExts, ext) {
				fileInfo, err := parseFileInfo(path, info)
				if err != nil {
					// Unrecognized names are never auto-deleted
					if debug && diskLogger != nil {
						diskLogger.Debug("Skipping file with unrecognized name", "path", path, "error", err)
					}
					return nil
				}
				fileInfo.Locked = isLockedFile(fileInfo.Path, lockedPaths)
				files = append(files, fileInfo)
			}
		}

		// Yield to other goroutines
		runtime.Gosched()

		return nil
	})

	return files, err
}

// CountVideoFiles counts the recording files under baseDir and sums their
// sizes. Files are matched by extension only, no database lookup involved.
func CountVideoFiles(baseDir string) (count int, bytes int64, err error) {
	err = filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && slices.Contains(allowedFileTypes, filepath.Ext(info.Name())) {
			count++
			bytes += info.Size()
		}
		return nil
	})
	return count, bytes, err
}

// parseFileInfo parses camera ID and segment start time from a recording
// file name of the form camera_<id>_<YYYYMMDD>_<HHMMSS>.<ext>.
func parseFileInfo(path string, info os.FileInfo) (FileInfo, error) {
	name := info.Name()
	base := strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.Split(base, "_")
	if len(parts) != 4 || parts[0] != "camera" {
		return FileInfo{}, errors.New("invalid file name format")
	}

	cameraID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return FileInfo{}, fmt.Errorf("invalid camera ID in file name: %w", err)
	}

	timestamp, err := time.ParseInLocation("20060102_150405", parts[2]+"_"+parts[3], time.Local)
	if err != nil {
		// Fall back to the filesystem timestamp when the name carries a
		// malformed but structurally valid timestamp field
		timestamp = info.ModTime()
	}

	return FileInfo{
		Path:      path,
		CameraID:  uint(cameraID),
		Timestamp: timestamp,
		Size:      info.Size(),
	}, nil
}

// getLockedPaths retrieves the set of locked recording paths from the database
func getLockedPaths(db Interface) (map[string]bool, error) {
	if db == nil {
		return nil, fmt.Errorf("database interface is nil")
	}
	paths, err := db.GetLockedRecordingPaths()
	if err != nil {
		return nil, err
	}
	locked := make(map[string]bool, len(paths))
	for _, p := range paths {
		locked[filepath.Base(p)] = true
	}
	return locked, nil
}

// isLockedFile checks if a file is in the locked set. Comparison is by base
// name so a recording stays protected even after a pool move.
func isLockedFile(path string, lockedPaths map[string]bool) bool {
	return lockedPaths[filepath.Base(path)]
}
