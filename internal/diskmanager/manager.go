// manager.go - cleanup scheduling and cached storage statistics
package diskmanager

import (
	"sync"
	"time"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/observability/metrics"
	"github.com/patrickmn/go-cache"
)

const (
	// storageInfoKey is the cache key for filesystem statistics
	storageInfoKey = "storage-info"

	// storageInfoTTL bounds how stale cached filesystem statistics may be
	storageInfoTTL = 30 * time.Second
)

// Stats holds running totals over every cleanup performed by a manager.
type Stats struct {
	FilesDeleted int64
	BytesFreed   int64
	LastCleanup  time.Time
}

// CameraUsage summarizes the disk footprint of one camera's recordings.
type CameraUsage struct {
	CameraID uint
	Files    int
	Bytes    int64
	Oldest   time.Time
	Newest   time.Time
}

// StorageInfo describes the recordings volume and the recording files on it.
type StorageInfo struct {
	TotalBytes      uint64
	UsedBytes       uint64
	FreeBytes       uint64
	RecordingsCount int
	RecordingsBytes int64
}

// PoolCleanupFunc runs pool-scoped retention for storage locations outside
// the default recordings path. Registered by the engine so every cleanup pass
// covers pools too.
type PoolCleanupFunc func(quit <-chan struct{}) []CleanupResult

// Manager runs the retention policies on a schedule and serves cached
// storage statistics to the rest of the engine.
type Manager struct {
	db          Interface
	cache       *cache.Cache
	metrics     *metrics.DiskManagerMetrics
	poolCleanup PoolCleanupFunc

	statsMu sync.Mutex
	stats   Stats
}

// NewManager creates a cleanup manager backed by the given database.
func NewManager(db Interface) *Manager {
	if diskLogger == nil {
		InitLogger()
	}
	return &Manager{
		db:    db,
		cache: cache.New(storageInfoTTL, 2*storageInfoTTL),
	}
}

// SetMetrics attaches Prometheus metrics to the manager. Optional, the
// manager works without it.
func (m *Manager) SetMetrics(dm *metrics.DiskManagerMetrics) {
	m.metrics = dm
}

// SetPoolCleanup registers pool-scoped retention to run as part of every
// cleanup pass, after the global policies.
func (m *Manager) SetPoolCleanup(fn PoolCleanupFunc) {
	m.poolCleanup = fn
}

// StorageInfo returns filesystem statistics for the recordings path together
// with the count and size of the recording files under it, cached for a
// short period because callers ask frequently. It never fails: on I/O errors
// the affected numbers stay zero and the error is logged, so health checks
// degrade instead of crashing.
func (m *Manager) StorageInfo() StorageInfo {
	if cached, found := m.cache.Get(storageInfoKey); found {
		return cached.(StorageInfo)
	}

	path := conf.Setting().Storage.Path
	var info StorageInfo

	start := time.Now()
	usage, err := GetDetailedDiskUsage(path)
	if err != nil {
		diskLogger.Error("Failed to stat recordings volume", "path", path, "error", err)
	} else {
		info.TotalBytes = usage.TotalBytes
		info.UsedBytes = usage.UsedBytes
		info.FreeBytes = usage.FreeBytes
		if m.metrics != nil {
			m.metrics.RecordDiskCheckDuration(time.Since(start).Seconds())
			m.metrics.UpdateDiskUsage(usage.UsedBytes, usage.TotalBytes)
		}
	}

	count, bytes, err := CountVideoFiles(path)
	if err != nil {
		diskLogger.Error("Failed to enumerate recordings", "path", path, "error", err)
	} else {
		info.RecordingsCount = count
		info.RecordingsBytes = bytes
	}

	m.cache.Set(storageInfoKey, info, cache.DefaultExpiration)
	return info
}

// RunCleanup executes both retention policies in order, age first so stale
// segments go before the size budget forces out newer ones.
func (m *Manager) RunCleanup(quit <-chan struct{}) []CleanupResult {
	var results []CleanupResult

	ageResult, err := m.runPolicy("age", quit, AgeBasedCleanup)
	results = append(results, ageResult)
	if err != nil {
		diskLogger.Error("Age-based cleanup failed", "error", err)
	}

	sizeResult, err := m.runPolicy("size", quit, SizeBasedCleanup)
	results = append(results, sizeResult)
	if err != nil {
		diskLogger.Error("Size-based cleanup failed", "error", err)
	}

	if m.poolCleanup != nil {
		results = append(results, m.poolCleanup(quit)...)
	}

	// Deleting files invalidates the cached statistics
	m.cache.Delete(storageInfoKey)

	for _, r := range results {
		m.accumulate(r)
	}
	return results
}

// Stats returns running totals over every cleanup the manager has performed.
func (m *Manager) Stats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *Manager) accumulate(r CleanupResult) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.stats.FilesDeleted += int64(r.FilesDeleted)
	m.stats.BytesFreed += r.BytesFreed
	m.stats.LastCleanup = time.Now()
}

// runPolicy wraps one policy run with metrics bookkeeping.
func (m *Manager) runPolicy(policy string, quit <-chan struct{}, fn func(<-chan struct{}, Interface) (CleanupResult, error)) (CleanupResult, error) {
	start := time.Now()
	result, err := fn(quit, m.db)

	if m.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
			m.metrics.RecordCleanupError(policy, "run")
		}
		m.metrics.RecordCleanupOperation(policy, status)
		m.metrics.RecordFilesDeleted(policy, float64(result.FilesDeleted))
		m.metrics.RecordBytesFreed(policy, float64(result.BytesFreed))
		m.metrics.RecordCleanupDuration(policy, time.Since(start).Seconds())
	}

	return result, err
}

// EnsureSpace frees enough room under the recordings path for a segment of
// the given size, evicting oldest unlocked recordings if needed.
func (m *Manager) EnsureSpace(requiredBytes int64) error {
	result, err := EnsureSpace(conf.Setting().Storage.Path, requiredBytes, m.db)
	if result.FilesDeleted > 0 {
		m.cache.Delete(storageInfoKey)
		m.accumulate(result)
		if m.metrics != nil {
			m.metrics.RecordFilesDeleted(result.Policy, float64(result.FilesDeleted))
			m.metrics.RecordBytesFreed(result.Policy, float64(result.BytesFreed))
		}
	}
	return err
}

// CameraStorageUsage summarizes how much space one camera's recordings
// occupy under the recordings path.
func (m *Manager) CameraStorageUsage(cameraID uint) (CameraUsage, error) {
	settings := conf.Setting()
	usage := CameraUsage{CameraID: cameraID}

	files, err := scanner.ScanFiles(settings.Storage.Path, allowedFileTypes, m.db, settings.Storage.Debug)
	if err != nil {
		return usage, err
	}

	for i := range files {
		if files[i].CameraID != cameraID {
			continue
		}
		usage.Files++
		usage.Bytes += files[i].Size
		if usage.Oldest.IsZero() || files[i].Timestamp.Before(usage.Oldest) {
			usage.Oldest = files[i].Timestamp
		}
		if files[i].Timestamp.After(usage.Newest) {
			usage.Newest = files[i].Timestamp
		}
	}
	return usage, nil
}

// CleanupCamera removes every unlocked recording of one camera under the
// recordings path. Used when a camera is deleted from the system.
func (m *Manager) CleanupCamera(cameraID uint, quit <-chan struct{}) (CleanupResult, error) {
	settings := conf.Setting()
	result := CleanupResult{Policy: "camera"}

	files, err := scanner.ScanFiles(settings.Storage.Path, allowedFileTypes, m.db, settings.Storage.Debug)
	if err != nil {
		return result, err
	}

	for i := range files {
		select {
		case <-quit:
			diskLogger.Info("Cleanup interrupted by quit signal")
			return result, nil
		default:
		}

		file := &files[i]
		if file.CameraID != cameraID {
			continue
		}
		if file.Locked {
			result.Skipped++
			continue
		}

		if err := deleteFile(file, m.db, settings.Storage.Debug); err != nil {
			diskLogger.Error("Failed to remove file", "path", file.Path, "error", err)
			result.Skipped++
			continue
		}
		result.FilesDeleted++
		result.BytesFreed += file.Size
	}

	m.cache.Delete(storageInfoKey)
	m.accumulate(result)
	return result, nil
}

// CleanupLoop runs the retention policies on the configured interval until
// the quit channel closes. Intended to run in its own goroutine.
func (m *Manager) CleanupLoop(quit <-chan struct{}) {
	interval := time.Duration(conf.Setting().Storage.CleanupIntervalHours) * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	diskLogger.Info("Cleanup loop started", "interval", interval)

	for {
		select {
		case <-quit:
			diskLogger.Info("Cleanup loop stopped")
			return
		case <-ticker.C:
			results := m.RunCleanup(quit)
			for _, r := range results {
				if r.FilesDeleted > 0 {
					diskLogger.Info("Cleanup pass finished",
						"policy", r.Policy,
						"files_deleted", r.FilesDeleted,
						"bytes_freed", r.BytesFreed,
						"skipped", r.Skipped)
				}
			}
		}
	}
}
