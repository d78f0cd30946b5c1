// recordings.go: recording segment queries
package datastore

import (
	"fmt"
	"time"
)

// CreateRecording inserts a new recording row. Used when a segment starts so
// the file is tracked even if the writer dies before finalization.
func (ds *DataStore) CreateRecording(recording *Recording) error {
	if recording.Status == "" {
		recording.Status = RecordingStatusRecording
	}
	if recording.Type == "" {
		recording.Type = RecordingTypeContinuous
	}
	if !ValidRecordingType(recording.Type) {
		return fmt.Errorf("creating recording %s: unknown type %q", recording.FilePath, recording.Type)
	}
	if err := ds.DB.Create(recording).Error; err != nil {
		return fmt.Errorf("creating recording %s: %w", recording.FilePath, err)
	}
	return nil
}

// FinalizeRecording fills in the end time, size, and duration of a finished
// segment and moves it to its terminal status.
func (ds *DataStore) FinalizeRecording(id uint, endTime time.Time, fileSize int64, duration float64, status string) error {
	if !ValidRecordingStatus(status) {
		return fmt.Errorf("finalizing recording %d: unknown status %q", id, status)
	}
	updates := map[string]any{
		"end_time":  endTime,
		"file_size": fileSize,
		"duration":  duration,
		"status":    status,
	}
	result := ds.DB.Model(&Recording{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("finalizing recording %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("finalizing recording %d: no such recording", id)
	}
	return nil
}

// GetRecording retrieves a recording by its ID.
func (ds *DataStore) GetRecording(id uint) (Recording, error) {
	var recording Recording
	if err := ds.DB.First(&recording, id).Error; err != nil {
		return Recording{}, fmt.Errorf("getting recording %d: %w", id, err)
	}
	return recording, nil
}

// GetRecordingByPath retrieves a recording by its absolute file path.
func (ds *DataStore) GetRecordingByPath(path string) (Recording, error) {
	var recording Recording
	if err := ds.DB.Where("file_path = ?", path).First(&recording).Error; err != nil {
		return Recording{}, fmt.Errorf("getting recording %s: %w", path, err)
	}
	return recording, nil
}

// GetRecordingsForCamera returns recordings for one camera, newest first.
func (ds *DataStore) GetRecordingsForCamera(cameraID uint, limit, offset int) ([]Recording, error) {
	var recordings []Recording
	query := ds.DB.Where("camera_id = ?", cameraID).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("getting recordings for camera %d: %w", cameraID, err)
	}
	return recordings, nil
}

// GetLockedRecordingPaths returns the file paths of every locked recording.
// Cleanup consults this set so locked files are never eligible for deletion.
func (ds *DataStore) GetLockedRecordingPaths() ([]string, error) {
	var paths []string
	if err := ds.DB.Model(&Recording{}).
		Where("locked = ?", true).
		Pluck("file_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("getting locked recording paths: %w", err)
	}
	return paths, nil
}

// SetRecordingLock sets or clears the lock flag on a recording.
func (ds *DataStore) SetRecordingLock(id uint, locked bool) error {
	result := ds.DB.Model(&Recording{}).Where("id = ?", id).Update("locked", locked)
	if result.Error != nil {
		return fmt.Errorf("setting lock on recording %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("setting lock on recording %d: no such recording", id)
	}
	return nil
}

// MarkRecordingDeleted flags the recording at path as deleted after its file
// has been removed from disk. Missing rows are not an error, cleanup also
// removes files that predate the database.
func (ds *DataStore) MarkRecordingDeleted(path string) error {
	if err := ds.DB.Model(&Recording{}).
		Where("file_path = ?", path).
		Update("status", RecordingStatusDeleted).Error; err != nil {
		return fmt.Errorf("marking recording %s deleted: %w", path, err)
	}
	return nil
}

// DeleteRecording removes a recording row entirely.
func (ds *DataStore) DeleteRecording(id uint) error {
	if err := ds.DB.Delete(&Recording{}, id).Error; err != nil {
		return fmt.Errorf("deleting recording %d: %w", id, err)
	}
	return nil
}
