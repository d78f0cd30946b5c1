// policy_age.go - code for age retention policy
package diskmanager

import (
	"time"

	"github.com/camsentry/camsentry/internal/conf"
)

// AgeBasedCleanup removes unlocked recordings older than the configured
// retention period. A retention of zero days disables the policy.
func AgeBasedCleanup(quit <-chan struct{}, db Interface) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	settings := conf.Setting()

	debug := settings.Storage.Debug
	baseDir := settings.Storage.Path
	retentionDays := settings.Storage.RetentionDays

	result := CleanupResult{Policy: "age"}

	if retentionDays <= 0 {
		if debug {
			diskLogger.Debug("Age retention disabled, skipping cleanup")
		}
		return result, nil
	}

	if debug {
		diskLogger.Debug("Starting age-based cleanup",
			"base_dir", baseDir,
			"retention_days", retentionDays)
	}

	files, err := scanner.ScanFiles(baseDir, allowedFileTypes, db, debug)
	if err != nil {
		return result, err
	}

	expiration := time.Now().AddDate(0, 0, -retentionDays)
	return performAgeCleanup(files, expiration, db, debug, quit)
}

// AgeCleanupPath runs the age retention policy against one directory with an
// explicit retention period, independent of the global storage settings. Used
// by the pool registry for per-pool retention.
func AgeCleanupPath(baseDir string, retentionDays int, quit <-chan struct{}, db Interface) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	result := CleanupResult{Policy: "age"}
	if retentionDays <= 0 {
		return result, nil
	}

	files, err := scanner.ScanFiles(baseDir, allowedFileTypes, db, false)
	if err != nil {
		return result, err
	}

	expiration := time.Now().AddDate(0, 0, -retentionDays)
	return performAgeCleanup(files, expiration, db, false, quit)
}

// performAgeCleanup deletes every unlocked file with a timestamp before the
// expiration cutoff, up to the per-run deletion cap.
func performAgeCleanup(files []FileInfo, expiration time.Time, db Interface, debug bool, quit <-chan struct{}) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	result := CleanupResult{
		Policy:         "age",
		RemainingFiles: len(files),
		RemainingBytes: totalSize(files),
	}

	for i := range files {
		select {
		case <-quit:
			diskLogger.Info("Cleanup interrupted by quit signal")
			return result, nil
		default:
		}

		file := &files[i]

		if file.Timestamp.After(expiration) || file.Timestamp.Equal(expiration) {
			continue
		}

		// Locked recordings are never deleted regardless of age
		if file.Locked {
			result.Skipped++
			if debug {
				diskLogger.Debug("Skipping locked file", "path", file.Path)
			}
			continue
		}

		if debug {
			diskLogger.Debug("File older than retention period, deleting", "path", file.Path)
		}

		// A file that cannot be removed must not block the rest of the pass
		if err := deleteFile(file, db, debug); err != nil {
			diskLogger.Error("Failed to remove file", "path", file.Path, "error", err)
			result.Skipped++
			continue
		}

		result.FilesDeleted++
		result.BytesFreed += file.Size
		result.RemainingFiles--
		result.RemainingBytes -= file.Size

		if result.FilesDeleted >= maxDeletionsPerRun {
			if debug {
				diskLogger.Debug("Reached maximum number of deletions", "max", maxDeletionsPerRun)
			}
			return result, nil
		}
	}

	if debug {
		diskLogger.Info("Age retention policy applied",
			"files_deleted", result.FilesDeleted,
			"bytes_freed", result.BytesFreed)
	}

	return result, nil
}
