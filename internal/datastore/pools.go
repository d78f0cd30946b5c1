// pools.go: storage pool and assignment queries
package datastore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CreatePool inserts a new storage pool. When the pool is marked default any
// previous default is cleared in the same transaction so at most one default
// pool exists.
func (ds *DataStore) CreatePool(pool *StoragePool) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if pool.Default {
			if err := tx.Model(&StoragePool{}).
				Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("clearing previous default pool: %w", err)
			}
		}
		if err := tx.Create(pool).Error; err != nil {
			return fmt.Errorf("creating pool %q: %w", pool.Name, err)
		}
		return nil
	})
}

// GetPool retrieves a pool by its ID.
func (ds *DataStore) GetPool(id uint) (StoragePool, error) {
	var pool StoragePool
	if err := ds.DB.First(&pool, id).Error; err != nil {
		return StoragePool{}, fmt.Errorf("getting pool %d: %w", id, err)
	}
	return pool, nil
}

// GetPoolByName retrieves a pool by its unique name.
func (ds *DataStore) GetPoolByName(name string) (StoragePool, error) {
	var pool StoragePool
	if err := ds.DB.Where("name = ?", name).First(&pool).Error; err != nil {
		return StoragePool{}, fmt.Errorf("getting pool %q: %w", name, err)
	}
	return pool, nil
}

// GetAllPools returns every pool ordered by priority, then ID for stable
// ordering between pools with equal priority.
func (ds *DataStore) GetAllPools() ([]StoragePool, error) {
	var pools []StoragePool
	if err := ds.DB.Order("priority, id").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("getting all pools: %w", err)
	}
	return pools, nil
}

// GetEnabledPools returns every enabled pool ordered by priority.
func (ds *DataStore) GetEnabledPools() ([]StoragePool, error) {
	var pools []StoragePool
	if err := ds.DB.Where("enabled = ?", true).Order("priority, id").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("getting enabled pools: %w", err)
	}
	return pools, nil
}

// SavePool updates an existing pool. When the pool is marked default every
// other pool loses the flag in the same transaction.
func (ds *DataStore) SavePool(pool *StoragePool) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if pool.Default {
			if err := tx.Model(&StoragePool{}).
				Where("is_default = ? AND id <> ?", true, pool.ID).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("clearing previous default pool: %w", err)
			}
		}
		if err := tx.Save(pool).Error; err != nil {
			return fmt.Errorf("saving pool %q: %w", pool.Name, err)
		}
		return nil
	})
}

// UpdatePoolStats records the latest filesystem stats for a pool.
func (ds *DataStore) UpdatePoolStats(id uint, totalGB, usedGB, freeGB float64) error {
	now := time.Now()
	updates := map[string]any{
		"total_gb": totalGB,
		"used_gb":  usedGB,
		"free_gb":  freeGB,
		"stats_at": &now,
	}
	if err := ds.DB.Model(&StoragePool{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("updating stats of pool %d: %w", id, err)
	}
	return nil
}

// UpdatePoolStatus updates the availability status of a pool.
func (ds *DataStore) UpdatePoolStatus(id uint, status string) error {
	if !ValidPoolStatus(status) {
		return fmt.Errorf("updating status of pool %d: unknown status %q", id, status)
	}
	if err := ds.DB.Model(&StoragePool{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("updating status of pool %d: %w", id, err)
	}
	return nil
}

// ClearDefaultPool removes the default flag from every pool.
func (ds *DataStore) ClearDefaultPool() error {
	if err := ds.DB.Model(&StoragePool{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("clearing default pool: %w", err)
	}
	return nil
}

// DeletePool removes a pool together with its camera assignments.
func (ds *DataStore) DeletePool(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", id).Delete(&CameraStorageAssignment{}).Error; err != nil {
			return fmt.Errorf("deleting assignments for pool %d: %w", id, err)
		}
		if err := tx.Delete(&StoragePool{}, id).Error; err != nil {
			return fmt.Errorf("deleting pool %d: %w", id, err)
		}
		return nil
	})
}

// GetAssignmentsForCamera returns the pool assignments of one camera with
// the primary assignment first.
func (ds *DataStore) GetAssignmentsForCamera(cameraID uint) ([]CameraStorageAssignment, error) {
	var assignments []CameraStorageAssignment
	if err := ds.DB.Where("camera_id = ?", cameraID).
		Order("is_primary DESC, pool_id").
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("getting assignments for camera %d: %w", cameraID, err)
	}
	return assignments, nil
}

// AssignCameraToPool creates an assignment between a camera and a pool. A
// primary assignment demotes any existing primary for the camera.
func (ds *DataStore) AssignCameraToPool(cameraID, poolID uint, primary bool) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if primary {
			if err := tx.Model(&CameraStorageAssignment{}).
				Where("camera_id = ? AND is_primary = ?", cameraID, true).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("demoting primary assignment for camera %d: %w", cameraID, err)
			}
		}
		assignment := CameraStorageAssignment{
			CameraID: cameraID,
			PoolID:   poolID,
			Primary:  primary,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("assigning camera %d to pool %d: %w", cameraID, poolID, err)
		}
		return nil
	})
}

// ReplacePrimaryAssignment makes poolID the primary pool of cameraID,
// creating the assignment if it does not exist yet.
func (ds *DataStore) ReplacePrimaryAssignment(cameraID, poolID uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&CameraStorageAssignment{}).
			Where("camera_id = ? AND is_primary = ?", cameraID, true).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("demoting primary assignment for camera %d: %w", cameraID, err)
		}

		var assignment CameraStorageAssignment
		err := tx.Where("camera_id = ? AND pool_id = ?", cameraID, poolID).First(&assignment).Error
		switch {
		case err == nil:
			if err := tx.Model(&assignment).Update("is_primary", true).Error; err != nil {
				return fmt.Errorf("promoting assignment of camera %d to pool %d: %w", cameraID, poolID, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			assignment = CameraStorageAssignment{CameraID: cameraID, PoolID: poolID, Primary: true}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("assigning camera %d to pool %d: %w", cameraID, poolID, err)
			}
		default:
			return fmt.Errorf("looking up assignment of camera %d to pool %d: %w", cameraID, poolID, err)
		}
		return nil
	})
}

// RemoveAssignment deletes the assignment between a camera and a pool.
func (ds *DataStore) RemoveAssignment(cameraID, poolID uint) error {
	result := ds.DB.Where("camera_id = ? AND pool_id = ?", cameraID, poolID).
		Delete(&CameraStorageAssignment{})
	if result.Error != nil {
		return fmt.Errorf("removing assignment of camera %d to pool %d: %w", cameraID, poolID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("removing assignment of camera %d to pool %d: no such assignment", cameraID, poolID)
	}
	return nil
}
