// cameras.go: camera queries
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GetCamera retrieves a camera by its ID.
func (ds *DataStore) GetCamera(id uint) (Camera, error) {
	var camera Camera
	if err := ds.DB.First(&camera, id).Error; err != nil {
		return Camera{}, fmt.Errorf("getting camera with ID %d: %w", id, err)
	}
	return camera, nil
}

// GetCameraByName retrieves a camera by its unique name.
func (ds *DataStore) GetCameraByName(name string) (Camera, error) {
	var camera Camera
	if err := ds.DB.Where("name = ?", name).First(&camera).Error; err != nil {
		return Camera{}, fmt.Errorf("getting camera %q: %w", name, err)
	}
	return camera, nil
}

// GetAllCameras returns every camera ordered by ID.
func (ds *DataStore) GetAllCameras() ([]Camera, error) {
	var cameras []Camera
	if err := ds.DB.Order("id").Find(&cameras).Error; err != nil {
		return nil, fmt.Errorf("getting all cameras: %w", err)
	}
	return cameras, nil
}

// GetEnabledCameras returns every administratively enabled camera.
func (ds *DataStore) GetEnabledCameras() ([]Camera, error) {
	var cameras []Camera
	if err := ds.DB.Where("enabled = ?", true).Order("id").Find(&cameras).Error; err != nil {
		return nil, fmt.Errorf("getting enabled cameras: %w", err)
	}
	return cameras, nil
}

// SaveCamera inserts or updates a camera.
func (ds *DataStore) SaveCamera(camera *Camera) error {
	if err := ds.DB.Save(camera).Error; err != nil {
		return fmt.Errorf("saving camera %q: %w", camera.Name, err)
	}
	return nil
}

// UpdateCameraStatus updates the reported status of a camera and stamps the
// last-seen time for the states that imply stream contact.
func (ds *DataStore) UpdateCameraStatus(id uint, status string) error {
	if !ValidCameraStatus(status) {
		return fmt.Errorf("updating status of camera %d: unknown status %q", id, status)
	}
	updates := map[string]any{"status": status}
	if status == CameraStatusOnline || status == CameraStatusRecording {
		now := time.Now()
		updates["last_seen"] = &now
	}
	if err := ds.DB.Model(&Camera{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("updating status of camera %d: %w", id, err)
	}
	return nil
}

// SetCameraRecording sets or clears the is-recording flag. Kept separate from
// the status column because a recorder can be attached while the status is
// owned by another writer.
func (ds *DataStore) SetCameraRecording(id uint, recording bool) error {
	if err := ds.DB.Model(&Camera{}).Where("id = ?", id).Update("is_recording", recording).Error; err != nil {
		return fmt.Errorf("updating recording flag of camera %d: %w", id, err)
	}
	return nil
}

// DeleteCamera removes a camera together with its pool assignments.
// Recording rows are kept so history survives camera removal.
func (ds *DataStore) DeleteCamera(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("camera_id = ?", id).Delete(&CameraStorageAssignment{}).Error; err != nil {
			return fmt.Errorf("deleting assignments for camera %d: %w", id, err)
		}
		if err := tx.Delete(&Camera{}, id).Error; err != nil {
			return fmt.Errorf("deleting camera %d: %w", id, err)
		}
		return nil
	})
}
