// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"github.com/camsentry/camsentry/internal/conf"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the recording engine needs.
type Interface interface {
	Open() error
	Close() error

	// cameras
	GetCamera(id uint) (Camera, error)
	GetCameraByName(name string) (Camera, error)
	GetAllCameras() ([]Camera, error)
	GetEnabledCameras() ([]Camera, error)
	SaveCamera(camera *Camera) error
	UpdateCameraStatus(id uint, status string) error
	SetCameraRecording(id uint, recording bool) error
	DeleteCamera(id uint) error

	// recordings
	CreateRecording(recording *Recording) error
	FinalizeRecording(id uint, endTime time.Time, fileSize int64, duration float64, status string) error
	GetRecording(id uint) (Recording, error)
	GetRecordingByPath(path string) (Recording, error)
	GetRecordingsForCamera(cameraID uint, limit, offset int) ([]Recording, error)
	GetLockedRecordingPaths() ([]string, error)
	SetRecordingLock(id uint, locked bool) error
	MarkRecordingDeleted(path string) error
	DeleteRecording(id uint) error

	// storage pools
	CreatePool(pool *StoragePool) error
	GetPool(id uint) (StoragePool, error)
	GetPoolByName(name string) (StoragePool, error)
	GetAllPools() ([]StoragePool, error)
	GetEnabledPools() ([]StoragePool, error)
	SavePool(pool *StoragePool) error
	UpdatePoolStats(id uint, totalGB, usedGB, freeGB float64) error
	UpdatePoolStatus(id uint, status string) error
	ClearDefaultPool() error
	DeletePool(id uint) error

	// camera to pool assignments
	GetAssignmentsForCamera(cameraID uint) ([]CameraStorageAssignment, error)
	AssignCameraToPool(cameraID, poolID uint, primary bool) error
	ReplacePrimaryAssignment(cameraID, poolID uint) error
	RemoveAssignment(cameraID, poolID uint) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}
