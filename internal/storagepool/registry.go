// registry.go - storage pool registry and pool selection for new recordings
package storagepool

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/camsentry/camsentry/internal/datastore"
	"github.com/camsentry/camsentry/internal/errors"
	"github.com/camsentry/camsentry/internal/observability/metrics"
)

// Selection reasons reported alongside the chosen pool.
const (
	ReasonAssigned      = "assigned"
	ReasonDefault       = "default"
	ReasonBestAvailable = "best_available"
)

// Registry manages the set of storage pools recordings are written to. All
// pool state lives in the datastore; the registry adds validation, default
// pool handling and the selection logic for new recordings.
type Registry struct {
	ds      datastore.Interface
	metrics *metrics.StoragePoolMetrics
}

// NewRegistry creates a storage pool registry backed by the given datastore.
func NewRegistry(ds datastore.Interface) *Registry {
	if poolLogger == nil {
		InitLogger()
	}
	return &Registry{ds: ds}
}

// SetMetrics attaches Prometheus metrics to the registry.
func (r *Registry) SetMetrics(m *metrics.StoragePoolMetrics) {
	r.metrics = m
}

// CreatePool validates and registers a new storage pool. The pool directory
// is created if it does not exist yet. When makeDefault is set, any previous
// default pool is demoted first.
func (r *Registry) CreatePool(pool *datastore.StoragePool, makeDefault bool) error {
	if err := validatePool(pool); err != nil {
		return err
	}

	if err := os.MkdirAll(pool.Path, 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Component("storagepool").
			Context("operation", "create_pool").
			Context("path", pool.Path).
			Build()
	}

	if pool.Status == "" {
		pool.Status = datastore.PoolStatusActive
	}
	pool.Default = makeDefault

	// the datastore clears any previous default in the same transaction
	if err := r.ds.CreatePool(pool); err != nil {
		return err
	}

	poolLogger.Info("storage pool created",
		"pool", pool.Name,
		"path", pool.Path,
		"priority", pool.Priority,
		"default", pool.Default)
	return nil
}

// UpdatePool persists changes to an existing pool after validation.
func (r *Registry) UpdatePool(pool *datastore.StoragePool) error {
	if err := validatePool(pool); err != nil {
		return err
	}
	return r.ds.SavePool(pool)
}

// DeletePool removes a pool from the registry. The default pool cannot be
// deleted; another pool has to be promoted first.
func (r *Registry) DeletePool(id uint) error {
	pool, err := r.ds.GetPool(id)
	if err != nil {
		return err
	}
	if pool.Default {
		return errors.Newf("pool %s is the default pool and cannot be deleted", pool.Name).
			Category(errors.CategoryConflict).
			Component("storagepool").
			Context("pool", pool.Name).
			Build()
	}
	if err := r.ds.DeletePool(id); err != nil {
		return err
	}
	poolLogger.Info("storage pool deleted", "pool", pool.Name, "path", pool.Path)
	return nil
}

// SetDefaultPool marks the given pool as the default target for cameras
// without an assignment, demoting any previous default.
func (r *Registry) SetDefaultPool(id uint) error {
	pool, err := r.ds.GetPool(id)
	if err != nil {
		return err
	}
	pool.Default = true
	if err := r.ds.SavePool(&pool); err != nil {
		return err
	}
	poolLogger.Info("default storage pool changed", "pool", pool.Name)
	return nil
}

// GetPool returns a pool by id.
func (r *Registry) GetPool(id uint) (datastore.StoragePool, error) {
	return r.ds.GetPool(id)
}

// GetPoolByName returns a pool by its unique name.
func (r *Registry) GetPoolByName(name string) (datastore.StoragePool, error) {
	return r.ds.GetPoolByName(name)
}

// GetAllPools returns every registered pool.
func (r *Registry) GetAllPools() ([]datastore.StoragePool, error) {
	return r.ds.GetAllPools()
}

// GetDefaultPool returns the pool currently marked as default. When no pool
// carries the flag it falls back to the lowest-priority enabled pool, so an
// installation that never ran set-default still gets a write target. Errors
// only when no enabled pool exists at all.
func (r *Registry) GetDefaultPool() (datastore.StoragePool, error) {
	pools, err := r.ds.GetAllPools()
	if err != nil {
		return datastore.StoragePool{}, err
	}
	for i := range pools {
		if pools[i].Default {
			return pools[i], nil
		}
	}

	// GetEnabledPools orders by priority ascending, the head is the fallback
	enabled, err := r.ds.GetEnabledPools()
	if err != nil {
		return datastore.StoragePool{}, err
	}
	if len(enabled) > 0 {
		return enabled[0], nil
	}

	return datastore.StoragePool{}, errors.Newf("no default storage pool configured").
		Category(errors.CategoryNotFound).
		Component("storagepool").
		Build()
}

// GetBestAvailablePool returns the first available pool in ascending priority
// order. Pools with equal priority are ordered by name for determinism.
func (r *Registry) GetBestAvailablePool() (datastore.StoragePool, error) {
	pools, err := r.ds.GetEnabledPools()
	if err != nil {
		return datastore.StoragePool{}, err
	}
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].Priority != pools[j].Priority {
			return pools[i].Priority < pools[j].Priority
		}
		return pools[i].Name < pools[j].Name
	})
	for i := range pools {
		if pools[i].IsAvailable() {
			return pools[i], nil
		}
	}
	return datastore.StoragePool{}, errors.Newf("no storage pool has free capacity").
		Category(errors.CategoryStoragePool).
		Component("storagepool").
		Build()
}

// SelectPoolForCamera picks the pool a new recording for the camera should be
// written to. The camera's primary assignment wins when its pool is available,
// then any other assigned pool, then the default pool, and finally the best
// available pool by priority.
func (r *Registry) SelectPoolForCamera(cameraID uint) (datastore.StoragePool, string, error) {
	assignments, err := r.ds.GetAssignmentsForCamera(cameraID)
	if err != nil {
		return datastore.StoragePool{}, "", err
	}

	// primary assignment first, then the remaining assigned pools
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].Primary && !assignments[j].Primary
	})
	for i := range assignments {
		pool, err := r.ds.GetPool(assignments[i].PoolID)
		if err != nil {
			poolLogger.Warn("assigned pool lookup failed",
				"camera_id", cameraID,
				"pool_id", assignments[i].PoolID,
				"error", err)
			continue
		}
		if pool.IsAvailable() {
			r.recordSelection(pool.Name, ReasonAssigned)
			return pool, ReasonAssigned, nil
		}
	}

	if pool, err := r.GetDefaultPool(); err == nil && pool.IsAvailable() {
		r.recordSelection(pool.Name, ReasonDefault)
		return pool, ReasonDefault, nil
	}

	pool, err := r.GetBestAvailablePool()
	if err != nil {
		return datastore.StoragePool{}, "", errors.New(err).
			Category(errors.CategoryStoragePool).
			Component("storagepool").
			Context("camera_id", fmt.Sprintf("%d", cameraID)).
			Context("operation", "select_pool").
			Build()
	}
	r.recordSelection(pool.Name, ReasonBestAvailable)
	return pool, ReasonBestAvailable, nil
}

// AssignCameraToPool links a camera to a pool. A primary assignment demotes
// any existing primary for that camera.
func (r *Registry) AssignCameraToPool(cameraID, poolID uint, primary bool) error {
	if _, err := r.ds.GetPool(poolID); err != nil {
		return err
	}
	if primary {
		return r.ds.ReplacePrimaryAssignment(cameraID, poolID)
	}
	return r.ds.AssignCameraToPool(cameraID, poolID, false)
}

// RemoveAssignment unlinks a camera from a pool.
func (r *Registry) RemoveAssignment(cameraID, poolID uint) error {
	return r.ds.RemoveAssignment(cameraID, poolID)
}

func (r *Registry) recordSelection(pool, reason string) {
	if r.metrics != nil {
		r.metrics.RecordSelection(pool, reason)
	}
	if poolLogger != nil {
		poolLogger.Debug("storage pool selected", "pool", pool, "reason", reason)
	}
}

func validatePool(pool *datastore.StoragePool) error {
	var problems []string
	if strings.TrimSpace(pool.Name) == "" {
		problems = append(problems, "pool name must not be empty")
	}
	if strings.TrimSpace(pool.Path) == "" {
		problems = append(problems, "pool path must not be empty")
	}
	if pool.MaxSizeGB < 0 {
		problems = append(problems, "size budget must not be negative")
	}
	if pool.MinFreeGB < 0 {
		problems = append(problems, "minimum free space must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Newf("invalid storage pool: %s", strings.Join(problems, ", ")).
		Category(errors.CategoryValidation).
		Component("storagepool").
		Context("pool", pool.Name).
		Build()
}
