// policy_common.go - shared code for cleanup policies
package diskmanager

import (
	"os"
	"runtime"
	"sort"
)

// maxDeletionsPerRun caps the number of files a single cleanup pass may
// delete so a misconfigured budget cannot wipe a full archive in one run.
const maxDeletionsPerRun = 1000

// CleanupResult reports what a cleanup pass actually did.
type CleanupResult struct {
	Policy         string // "age", "size", or "space"
	FilesDeleted   int
	BytesFreed     int64
	Skipped        int   // locked files and files whose deletion failed
	RemainingFiles int   // recording files left after the pass
	RemainingBytes int64 // their combined size
}

// sortOldestFirst orders files for FIFO eviction, oldest segment first.
// Ties fall back to path ordering so the result is deterministic.
func sortOldestFirst(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].Timestamp.Equal(files[j].Timestamp) {
			return files[i].Timestamp.Before(files[j].Timestamp)
		}
		return files[i].Path < files[j].Path
	})
}

// totalSize sums the sizes of the given files.
func totalSize(files []FileInfo) int64 {
	var total int64
	for i := range files {
		total += files[i].Size
	}
	return total
}

// deleteFile removes one recording from disk and flags its database row as
// deleted. Files already gone from disk count as deleted.
func deleteFile(file *FileInfo, db Interface, debug bool) error {
	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := db.MarkRecordingDeleted(file.Path); err != nil {
		// The file is gone, record the failure but do not undo the delete
		diskLogger.Error("Failed to mark recording deleted in database",
			"path", file.Path, "error", err)
	}

	if debug {
		diskLogger.Debug("File deleted", "path", file.Path, "size", file.Size)
	}

	// Yield to other goroutines
	runtime.Gosched()

	return nil
}
