// cleanup.go - per-pool retention and recording counts
package storagepool

import (
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
)

// CountRecordings returns the number of recording files and their combined
// size under a pool's path.
func (r *Registry) CountRecordings(pool *datastore.StoragePool) (int, int64, error) {
	return diskmanager.CountVideoFiles(pool.Path)
}

// CleanupPools applies per-pool retention and the per-pool size budget to
// every enabled pool. Pools without their own policy are covered by the
// global one. File deletion goes through the disk manager so the lock rule
// stays in one place. Age runs before size so stale segments go first, same
// order as the global pass.
func (r *Registry) CleanupPools(quit <-chan struct{}, db diskmanager.Interface) ([]diskmanager.CleanupResult, error) {
	pools, err := r.ds.GetEnabledPools()
	if err != nil {
		return nil, err
	}

	var results []diskmanager.CleanupResult
	for i := range pools {
		pool := &pools[i]

		if pool.RetentionDays > 0 {
			result, err := diskmanager.AgeCleanupPath(pool.Path, pool.RetentionDays, quit, db)
			results = append(results, result)
			r.logPoolCleanup(pool, "retention", result, err)
		}

		if pool.MaxSizeGB > 0 {
			maxBytes := int64(pool.MaxSizeGB * bytesPerGB)
			result, err := diskmanager.SizeCleanupPath(pool.Path, maxBytes, quit, db)
			results = append(results, result)
			r.logPoolCleanup(pool, "size", result, err)
		}
	}
	return results, nil
}

func (r *Registry) logPoolCleanup(pool *datastore.StoragePool, policy string, result diskmanager.CleanupResult, err error) {
	if err != nil {
		poolLogger.Error("pool cleanup failed",
			"pool", pool.Name,
			"policy", policy,
			"error", err)
		return
	}
	if result.FilesDeleted > 0 {
		poolLogger.Info("pool cleanup finished",
			"pool", pool.Name,
			"policy", policy,
			"files_deleted", result.FilesDeleted,
			"bytes_freed", result.BytesFreed,
			"skipped", result.Skipped)
	}
}
