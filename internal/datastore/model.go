// model.go this code defines the data model for the application
package datastore

import "time"

// Camera status values.
const (
	CameraStatusOnline     = "online"
	CameraStatusOffline    = "offline"
	CameraStatusRecording  = "recording"
	CameraStatusError      = "error"
	CameraStatusConnecting = "connecting"
)

// Recording type values.
const (
	RecordingTypeContinuous = "continuous"
	RecordingTypeMotion     = "motion"
	RecordingTypeScheduled  = "scheduled"
	RecordingTypeManual     = "manual"
	RecordingTypeAlarm      = "alarm"
)

// Recording status values.
const (
	RecordingStatusRecording  = "recording"
	RecordingStatusCompleted  = "completed"
	RecordingStatusFailed     = "failed"
	RecordingStatusProcessing = "processing"
	RecordingStatusDeleted    = "deleted"
)

// Storage pool status values.
const (
	PoolStatusActive   = "active"
	PoolStatusInactive = "inactive"
	PoolStatusFull     = "full"
	PoolStatusError    = "error"
)

// ValidCameraStatus reports whether s is a defined camera status value.
func ValidCameraStatus(s string) bool {
	switch s {
	case CameraStatusOnline, CameraStatusOffline, CameraStatusRecording,
		CameraStatusError, CameraStatusConnecting:
		return true
	}
	return false
}

// ValidRecordingType reports whether s is a defined recording type value.
func ValidRecordingType(s string) bool {
	switch s {
	case RecordingTypeContinuous, RecordingTypeMotion, RecordingTypeScheduled,
		RecordingTypeManual, RecordingTypeAlarm:
		return true
	}
	return false
}

// ValidRecordingStatus reports whether s is a defined recording status value.
func ValidRecordingStatus(s string) bool {
	switch s {
	case RecordingStatusRecording, RecordingStatusCompleted,
		RecordingStatusFailed, RecordingStatusProcessing, RecordingStatusDeleted:
		return true
	}
	return false
}

// ValidPoolStatus reports whether s is a defined storage pool status value.
func ValidPoolStatus(s string) bool {
	switch s {
	case PoolStatusActive, PoolStatusInactive, PoolStatusFull, PoolStatusError:
		return true
	}
	return false
}

// Camera represents a single camera managed by the recording engine
type Camera struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	RTSPUrl     string `gorm:"not null"`
	SubUrl      string // optional low-bandwidth substream
	Enabled     bool   `gorm:"index"`                                  // administratively enabled
	Status      string `gorm:"type:varchar(20);index;default:offline"` // Values: online, offline, recording, error, connecting
	IsRecording bool   `gorm:"column:is_recording;index"`              // a recorder is currently attached
	LastSeen    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Recording represents a single recorded video segment on disk
type Recording struct {
	ID        uint   `gorm:"primaryKey"`
	CameraID  uint   `gorm:"index:idx_recordings_camera;not null;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;foreignKey:CameraID;references:ID"`
	PoolID    *uint  `gorm:"index"` // nil when stored under the default recordings path
	FilePath  string `gorm:"uniqueIndex;not null"`
	FileName  string
	StartTime time.Time `gorm:"index:idx_recordings_start"`
	EndTime   *time.Time
	Duration  float64 // seconds
	FileSize  int64   // bytes
	Type      string  `gorm:"type:varchar(20);default:continuous"` // Values: continuous, motion, scheduled, manual, alarm
	Status    string  `gorm:"type:varchar(20);index;default:recording"`
	Locked    bool    `gorm:"index"`                   // locked recordings are never auto-deleted
	Starred   bool    `gorm:"column:is_starred;index"` // user bookmark, no effect on retention
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoragePool represents one storage location recordings can be written to
type StoragePool struct {
	ID            uint       `gorm:"primaryKey"`
	Name          string     `gorm:"uniqueIndex;not null"`
	Path          string     `gorm:"uniqueIndex;not null"`
	Enabled       bool       `gorm:"index"`
	Status        string     `gorm:"type:varchar(20);index;default:active"` // Values: active, inactive, full, error
	Priority      int        `gorm:"index"`                                 // lower value is preferred
	Default       bool       `gorm:"column:is_default;index"`               // at most one pool may be default
	MaxSizeGB     float64    // recordings size budget, 0 is unbounded
	MinFreeGB     float64    // pool is full when free space drops below this
	RetentionDays int        // per-pool retention in days, 0 inherits the global policy
	TotalGB       float64    // last observed filesystem capacity
	UsedGB        float64    // last observed filesystem usage
	FreeGB        float64    // last observed filesystem free space
	StatsAt       *time.Time // time of the last stats refresh
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CameraStorageAssignment maps a camera to a pool it may record into
type CameraStorageAssignment struct {
	ID        uint `gorm:"primaryKey"`
	CameraID  uint `gorm:"uniqueIndex:idx_assignment_camera_pool;not null;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;foreignKey:CameraID;references:ID"`
	PoolID    uint `gorm:"uniqueIndex:idx_assignment_camera_pool;not null;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;foreignKey:PoolID;references:ID"`
	Primary   bool `gorm:"column:is_primary;index"` // at most one primary assignment per camera
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable reports whether the pool can accept new recordings. A pool is
// available when it is enabled, active, and has more free space than its
// configured minimum.
func (p *StoragePool) IsAvailable() bool {
	return p.Enabled && p.Status == PoolStatusActive && p.FreeGB >= p.MinFreeGB
}
