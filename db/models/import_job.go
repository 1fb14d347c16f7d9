package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportJobStatus is the lifecycle state of an import run.
// Transitions only move forward (queued → running → completed|failed),
// except for crash recovery which resets running jobs back to queued.
type ImportJobStatus string

const (
	ImportJobQueued    ImportJobStatus = "queued"
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobCompleted ImportJobStatus = "completed"
	ImportJobFailed    ImportJobStatus = "failed"
)

// Import log levels
const (
	ImportLogInfo  = "info"
	ImportLogWarn  = "warn"
	ImportLogError = "error"
)

// ImportJob is one legacy migration run. Jobs are never deleted; they are
// the audit trail of everything the importer ever did to the database.
type ImportJob struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	SessionID string    `gorm:"uniqueIndex;not null" json:"session_id"`

	// SessionDir owns every uploaded and extracted file for this run
	SessionDir string `gorm:"not null" json:"session_dir"`
	Overwrite  bool   `gorm:"default:false" json:"overwrite"`

	Status ImportJobStatus `gorm:"type:varchar(20);not null;index;default:'queued'" json:"status"`

	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`

	CreatedBy string `gorm:"not null" json:"created_by"`

	ReportPath   *string        `json:"report_path"`
	Summary      datatypes.JSON `gorm:"type:jsonb" json:"summary"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message"`

	Logs []ImportLogEntry `gorm:"foreignKey:JobID" json:"logs,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ImportLogEntry is an append-only progress record for one job. The
// autoincrement Seq gives a strict total order without relying on
// timestamp resolution.
type ImportLogEntry struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement" json:"seq"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	Level     string    `gorm:"type:varchar(10);not null" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (j *ImportJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
