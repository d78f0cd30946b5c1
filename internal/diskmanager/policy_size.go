// policy_size.go - code for total size retention policy
package diskmanager

import (
	"github.com/camsentry/camsentry/internal/conf"
)

// SizeBasedCleanup evicts the oldest unlocked recordings until the total
// size of recordings under the storage path fits within the configured
// budget. An empty budget disables the policy.
func SizeBasedCleanup(quit <-chan struct{}, db Interface) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	settings := conf.Setting()

	debug := settings.Storage.Debug
	baseDir := settings.Storage.Path

	result := CleanupResult{Policy: "size"}

	maxBytes, err := conf.ParseStorageSize(settings.Storage.MaxStorage)
	if err != nil {
		return result, err
	}
	if maxBytes <= 0 {
		if debug {
			diskLogger.Debug("Storage budget unbounded, skipping size cleanup")
		}
		return result, nil
	}

	if debug {
		diskLogger.Debug("Starting size-based cleanup",
			"base_dir", baseDir,
			"max_bytes", maxBytes)
	}

	files, err := scanner.ScanFiles(baseDir, allowedFileTypes, db, debug)
	if err != nil {
		return result, err
	}

	return performSizeCleanup(files, maxBytes, db, debug, quit)
}

// SizeCleanupPath evicts oldest-first under one directory until its
// recordings fit within an explicit byte budget, independent of the global
// storage settings. Used by the pool registry for per-pool size bounds.
func SizeCleanupPath(baseDir string, maxBytes int64, quit <-chan struct{}, db Interface) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	result := CleanupResult{Policy: "size"}
	if maxBytes <= 0 {
		return result, nil
	}

	files, err := scanner.ScanFiles(baseDir, allowedFileTypes, db, false)
	if err != nil {
		return result, err
	}

	return performSizeCleanup(files, maxBytes, db, false, quit)
}

// performSizeCleanup deletes unlocked files oldest first until the tracked
// total drops to the budget. The total is maintained in memory during the
// pass, deletions by other actors are picked up on the next run.
func performSizeCleanup(files []FileInfo, maxBytes int64, db Interface, debug bool, quit <-chan struct{}) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	result := CleanupResult{
		Policy:         "size",
		RemainingFiles: len(files),
	}

	total := totalSize(files)
	result.RemainingBytes = total
	if total <= maxBytes {
		if debug {
			diskLogger.Debug("Total size within budget, no cleanup needed",
				"total", total,
				"max_bytes", maxBytes)
		}
		return result, nil
	}

	sortOldestFirst(files)

	for i := range files {
		select {
		case <-quit:
			diskLogger.Info("Cleanup interrupted by quit signal")
			return result, nil
		default:
		}

		if total <= maxBytes || result.FilesDeleted >= maxDeletionsPerRun {
			break
		}

		file := &files[i]

		// Locked recordings do not count toward eviction candidates but
		// their size still occupies the budget
		if file.Locked {
			result.Skipped++
			if debug {
				diskLogger.Debug("Skipping locked file", "path", file.Path)
			}
			continue
		}

		if debug {
			diskLogger.Debug("Evicting oldest recording", "path", file.Path)
		}

		// A file that cannot be removed still occupies the budget; skip it
		// and keep evicting so one bad file does not defeat the bound
		if err := deleteFile(file, db, debug); err != nil {
			diskLogger.Error("Failed to remove file", "path", file.Path, "error", err)
			result.Skipped++
			continue
		}

		total -= file.Size
		result.FilesDeleted++
		result.BytesFreed += file.Size
		result.RemainingFiles--
		result.RemainingBytes -= file.Size
	}

	if debug {
		diskLogger.Info("Size retention policy applied",
			"files_deleted", result.FilesDeleted,
			"bytes_freed", result.BytesFreed,
			"total_after", total)
	}

	return result, nil
}
