package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/brunomedeirosisi/pos/db/models"
	"github.com/brunomedeirosisi/pos/importer/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const queueCapacity = 256

// PipelineRunner is what the queue drives for each job. Split out so the
// state machine can be exercised without a database.
type PipelineRunner interface {
	Run(job *models.ImportJob) (*ImportSummary, string, error)
}

// ImportQueue is the persistent single-flight job orchestrator: an in-memory
// FIFO drained by exactly one worker goroutine, so at most one import
// pipeline executes at any instant process-wide. Enqueue persists the job
// and returns immediately; execution and status transitions happen on the
// worker. Jobs left running by a crash are reset to queued on startup and
// re-executed from the beginning.
type ImportQueue struct {
	jobRepo  repositories.ImportJobRepository
	pipeline PipelineRunner
	logger   *zap.Logger
	pending  chan uuid.UUID

	once sync.Once
}

func NewImportQueue(jobRepo repositories.ImportJobRepository, pipeline PipelineRunner, logger *zap.Logger) *ImportQueue {
	return &ImportQueue{
		jobRepo:  jobRepo,
		pipeline: pipeline,
		logger:   logger,
		pending:  make(chan uuid.UUID, queueCapacity),
	}
}

// Start performs crash recovery and launches the worker loop. Safe to call
// once at process start.
func (q *ImportQueue) Start(ctx context.Context) error {
	var startErr error
	q.once.Do(func() {
		reset, err := q.jobRepo.ResetRunningJobs()
		if err != nil {
			startErr = fmt.Errorf("reset interrupted import jobs: %w", err)
			return
		}
		if reset > 0 {
			q.logger.Warn("requeued import jobs interrupted by restart", zap.Int64("count", reset))
		}

		queued, err := q.jobRepo.ListQueuedJobs()
		if err != nil {
			startErr = fmt.Errorf("load queued import jobs: %w", err)
			return
		}
		for _, job := range queued {
			select {
			case q.pending <- job.ID:
			default:
				q.logger.Warn("import queue full during recovery, job stays queued",
					zap.String("session_id", job.SessionID))
			}
		}

		go q.workerLoop(ctx)
	})
	return startErr
}

// Enqueue persists the job as queued and hands it to the worker. Non-blocking:
// callers in request-handling contexts return immediately. A full queue is an
// error; the persisted job will be picked up by recovery on next restart.
func (q *ImportQueue) Enqueue(job *models.ImportJob) (*models.ImportJob, error) {
	created, err := q.jobRepo.CreateJob(job)
	if err != nil {
		return nil, fmt.Errorf("persist import job: %w", err)
	}

	select {
	case q.pending <- created.ID:
	default:
		return nil, fmt.Errorf("import queue is full, job %s will run after restart", created.SessionID)
	}
	return created, nil
}

func (q *ImportQueue) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-q.pending:
			q.process(jobID)
		}
	}
}

// process runs one job through the pipeline, owning its status transitions.
// Stage failures are converted into the job's failed status and are never
// propagated further; they are observable via the status interface only.
func (q *ImportQueue) process(jobID uuid.UUID) {
	job, err := q.jobRepo.GetJobByID(jobID)
	if err != nil {
		q.logger.Error("cannot load queued import job", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if job.Status != models.ImportJobQueued {
		// Forward-only transitions: anything not queued was already handled
		return
	}

	if err := q.jobRepo.MarkRunning(job.ID); err != nil {
		q.logger.Error("cannot mark import job running", zap.String("session_id", job.SessionID), zap.Error(err))
		return
	}
	q.appendLog(job, models.ImportLogInfo, "import started")

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("import panicked: %v", r)
			q.appendLog(job, models.ImportLogError, message)
			if err := q.jobRepo.MarkFailed(job.ID, message); err != nil {
				q.logger.Error("cannot mark import job failed", zap.String("session_id", job.SessionID), zap.Error(err))
			}
		}
	}()

	started := time.Now()
	summary, reportPath, err := q.pipeline.Run(job)
	if err != nil {
		q.logger.Error("import job failed",
			zap.String("session_id", job.SessionID),
			zap.Error(err),
		)
		q.appendLog(job, models.ImportLogError, err.Error())
		if err := q.jobRepo.MarkFailed(job.ID, err.Error()); err != nil {
			q.logger.Error("cannot mark import job failed", zap.String("session_id", job.SessionID), zap.Error(err))
		}
		return
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		q.appendLog(job, models.ImportLogError, fmt.Sprintf("cannot encode summary: %v", err))
		if err := q.jobRepo.MarkFailed(job.ID, err.Error()); err != nil {
			q.logger.Error("cannot mark import job failed", zap.String("session_id", job.SessionID), zap.Error(err))
		}
		return
	}

	if err := q.jobRepo.MarkCompleted(job.ID, summaryJSON, reportPath); err != nil {
		q.logger.Error("cannot mark import job completed", zap.String("session_id", job.SessionID), zap.Error(err))
		return
	}
	q.appendLog(job, models.ImportLogInfo, fmt.Sprintf("import completed in %s", time.Since(started).Round(time.Millisecond)))
}

func (q *ImportQueue) appendLog(job *models.ImportJob, level, message string) {
	if err := q.jobRepo.AppendLog(job.ID, level, message); err != nil {
		q.logger.Warn("failed to append import log entry",
			zap.String("session_id", job.SessionID),
			zap.Error(err),
		)
	}
}

// NewSessionID builds the human-readable session identifier: timestamp plus
// a short random suffix.
func NewSessionID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:6])
}
