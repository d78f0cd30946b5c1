// ensure_space.go - pre-write space guard
package diskmanager

import (
	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/errors"
)

// EnsureSpace guarantees at least requiredBytes of free space on the
// filesystem holding baseDir before a new segment starts. When free space is
// short it evicts the oldest unlocked recordings under baseDir. It returns
// what was deleted along with an error when enough space could not be freed.
func EnsureSpace(baseDir string, requiredBytes int64, db Interface) (CleanupResult, error) {
	if diskLogger == nil {
		InitLogger()
	}

	debug := conf.Setting().Storage.Debug
	result := CleanupResult{Policy: "space"}

	usage, err := GetDetailedDiskUsage(baseDir)
	if err != nil {
		return result, errors.New(err).
			Category(errors.CategoryDiskUsage).
			Component("diskmanager").
			Context("base_dir", baseDir).
			Build()
	}

	if usage.FreeBytes >= uint64(requiredBytes) {
		return result, nil
	}

	shortfall := requiredBytes - int64(usage.FreeBytes)

	if debug {
		diskLogger.Debug("Free space below requirement, evicting recordings",
			"base_dir", baseDir,
			"free_bytes", usage.FreeBytes,
			"required_bytes", requiredBytes,
			"shortfall", shortfall)
	}

	files, err := scanner.ScanFiles(baseDir, allowedFileTypes, db, debug)
	if err != nil {
		return result, err
	}

	sortOldestFirst(files)

	for i := range files {
		if result.BytesFreed >= shortfall || result.FilesDeleted >= maxDeletionsPerRun {
			break
		}

		file := &files[i]
		if file.Locked {
			result.Skipped++
			continue
		}

		// Keep evicting past a failed deletion, the shortfall check below
		// decides whether the guard ultimately succeeded
		if err := deleteFile(file, db, debug); err != nil {
			diskLogger.Error("Failed to remove file", "path", file.Path, "error", err)
			result.Skipped++
			continue
		}

		result.FilesDeleted++
		result.BytesFreed += file.Size
	}

	if result.BytesFreed < shortfall {
		return result, errors.Newf("insufficient space under %s: need %d more bytes after freeing %d",
			baseDir, shortfall-result.BytesFreed, result.BytesFreed).
			Category(errors.CategoryDiskUsage).
			Component("diskmanager").
			Context("base_dir", baseDir).
			Context("required_bytes", requiredBytes).
			Build()
	}

	return result, nil
}
