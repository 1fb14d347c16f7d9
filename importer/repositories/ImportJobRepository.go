package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/brunomedeirosisi/pos/db/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportJobRepository interface {
	CreateJob(job *models.ImportJob) (*models.ImportJob, error)
	GetJobByID(id uuid.UUID) (*models.ImportJob, error)
	GetJobBySessionID(sessionID string) (*models.ImportJob, error)
	ListQueuedJobs() ([]models.ImportJob, error)
	ResetRunningJobs() (int64, error)
	MarkRunning(id uuid.UUID) error
	MarkCompleted(id uuid.UUID, summary datatypes.JSON, reportPath string) error
	MarkFailed(id uuid.UUID, message string) error
	AppendLog(jobID uuid.UUID, level, message string) error
	GetLogs(jobID uuid.UUID) ([]models.ImportLogEntry, error)
}

type importJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepository{
		db: db,
	}
}

func (r *importJobRepository) CreateJob(job *models.ImportJob) (*models.ImportJob, error) {
	job.Status = models.ImportJobQueued
	if err := r.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *importJobRepository) GetJobByID(id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepository) GetJobBySessionID(sessionID string) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.First(&job, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("import session '%s' not found", sessionID)
		}
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepository) ListQueuedJobs() ([]models.ImportJob, error) {
	var jobs []models.ImportJob
	err := r.db.Where("status = ?", models.ImportJobQueued).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// ResetRunningJobs moves jobs left running by a crashed process back to
// queued so the worker re-executes them from the beginning on startup.
// Every write in the pipeline is idempotent by key, so re-running is safe.
func (r *importJobRepository) ResetRunningJobs() (int64, error) {
	result := r.db.Model(&models.ImportJob{}).
		Where("status = ?", models.ImportJobRunning).
		Updates(map[string]interface{}{
			"status":      models.ImportJobQueued,
			"started_at":  nil,
			"finished_at": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *importJobRepository) MarkRunning(id uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.ImportJobRunning,
			"started_at": &now,
		}).Error
}

func (r *importJobRepository) MarkCompleted(id uuid.UUID, summary datatypes.JSON, reportPath string) error {
	now := time.Now()
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ImportJobCompleted,
			"finished_at": &now,
			"summary":     summary,
			"report_path": &reportPath,
		}).Error
}

func (r *importJobRepository) MarkFailed(id uuid.UUID, message string) error {
	now := time.Now()
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.ImportJobFailed,
			"finished_at":   &now,
			"error_message": &message,
		}).Error
}

func (r *importJobRepository) AppendLog(jobID uuid.UUID, level, message string) error {
	entry := models.ImportLogEntry{
		JobID:   jobID,
		Level:   level,
		Message: message,
	}
	return r.db.Create(&entry).Error
}

func (r *importJobRepository) GetLogs(jobID uuid.UUID) ([]models.ImportLogEntry, error) {
	var logs []models.ImportLogEntry
	err := r.db.Where("job_id = ?", jobID).
		Order("seq ASC").
		Find(&logs).Error
	return logs, err
}
