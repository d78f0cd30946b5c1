// refresh.go - periodic filesystem stats refresh for registered pools
package storagepool

import (
	"os"
	"time"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/diskmanager"
)

const bytesPerGB = 1 << 30

// statsProvider reports filesystem usage for a path. Swapped out in tests.
type statsProvider func(path string) (diskmanager.DiskSpaceInfo, error)

var diskStats statsProvider = diskmanager.GetDetailedDiskUsage

// RefreshPool re-reads the filesystem stats of one pool, persists them and
// derives the pool status. A pool whose path no longer exists goes to error,
// a pool below its free space minimum goes to full, a disabled pool goes to
// inactive, everything else is active.
func (r *Registry) RefreshPool(pool *datastore.StoragePool) error {
	status := datastore.PoolStatusActive

	if _, err := os.Stat(pool.Path); err != nil {
		poolLogger.Error("storage pool path not accessible",
			"pool", pool.Name,
			"path", pool.Path,
			"error", err)
		return r.transitionStatus(pool, datastore.PoolStatusError)
	}

	info, err := diskStats(pool.Path)
	if err != nil {
		poolLogger.Error("storage pool stats query failed",
			"pool", pool.Name,
			"path", pool.Path,
			"error", err)
		return r.transitionStatus(pool, datastore.PoolStatusError)
	}

	totalGB := float64(info.TotalBytes) / bytesPerGB
	usedGB := float64(info.UsedBytes) / bytesPerGB
	freeGB := float64(info.FreeBytes) / bytesPerGB

	if err := r.ds.UpdatePoolStats(pool.ID, totalGB, usedGB, freeGB); err != nil {
		return err
	}
	pool.TotalGB = totalGB
	pool.UsedGB = usedGB
	pool.FreeGB = freeGB

	switch {
	case !pool.Enabled:
		status = datastore.PoolStatusInactive
	case freeGB < pool.MinFreeGB:
		status = datastore.PoolStatusFull
	}

	if err := r.transitionStatus(pool, status); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.UpdatePoolStats(pool.Name, totalGB, usedGB, freeGB, pool.IsAvailable())
	}
	return nil
}

// RefreshAll refreshes the stats of every registered pool. Individual pool
// failures are recorded on the pool itself and do not abort the pass.
func (r *Registry) RefreshAll() error {
	start := time.Now()
	pools, err := r.ds.GetAllPools()
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordRefresh("error", time.Since(start).Seconds())
		}
		return err
	}
	for i := range pools {
		if err := r.RefreshPool(&pools[i]); err != nil {
			poolLogger.Error("storage pool refresh failed",
				"pool", pools[i].Name,
				"error", err)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordRefresh("success", time.Since(start).Seconds())
	}
	return nil
}

// RefreshLoop refreshes pool stats on the configured interval until quit is
// closed. One refresh runs immediately on startup.
func (r *Registry) RefreshLoop(settings *conf.Settings, quit chan struct{}) {
	interval := time.Duration(settings.Pools.StatsInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	if err := r.RefreshAll(); err != nil {
		poolLogger.Error("initial storage pool refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			poolLogger.Info("storage pool refresh loop stopping")
			return
		case <-ticker.C:
			if err := r.RefreshAll(); err != nil {
				poolLogger.Error("storage pool refresh failed", "error", err)
			}
		}
	}
}

// transitionStatus persists a status change and records the transition.
func (r *Registry) transitionStatus(pool *datastore.StoragePool, status string) error {
	if pool.Status == status {
		return nil
	}
	if err := r.ds.UpdatePoolStatus(pool.ID, status); err != nil {
		return err
	}
	poolLogger.Info("storage pool status changed",
		"pool", pool.Name,
		"from", pool.Status,
		"to", status)
	pool.Status = status
	if r.metrics != nil {
		r.metrics.RecordStatusTransition(pool.Name, status)
	}
	return nil
}
