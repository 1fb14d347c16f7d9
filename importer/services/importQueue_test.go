package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brunomedeirosisi/pos/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakeJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.ImportJob
	logs []models.ImportLogEntry
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: make(map[uuid.UUID]*models.ImportJob)}
}

func (f *fakeJobRepository) CreateJob(job *models.ImportJob) (*models.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = models.ImportJobQueued
	copied := *job
	f.jobs[job.ID] = &copied
	return job, nil
}

func (f *fakeJobRepository) GetJobByID(id uuid.UUID) (*models.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepository) GetJobBySessionID(sessionID string) (*models.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.SessionID == sessionID {
			copied := *job
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("import session '%s' not found", sessionID)
}

func (f *fakeJobRepository) ListQueuedJobs() ([]models.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var queued []models.ImportJob
	for _, job := range f.jobs {
		if job.Status == models.ImportJobQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (f *fakeJobRepository) ResetRunningJobs() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reset int64
	for _, job := range f.jobs {
		if job.Status == models.ImportJobRunning {
			job.Status = models.ImportJobQueued
			job.StartedAt = nil
			job.FinishedAt = nil
			reset++
		}
	}
	return reset, nil
}

func (f *fakeJobRepository) MarkRunning(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.jobs[id].Status = models.ImportJobRunning
	f.jobs[id].StartedAt = &now
	return nil
}

func (f *fakeJobRepository) MarkCompleted(id uuid.UUID, summary datatypes.JSON, reportPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.jobs[id].Status = models.ImportJobCompleted
	f.jobs[id].FinishedAt = &now
	f.jobs[id].Summary = summary
	f.jobs[id].ReportPath = &reportPath
	return nil
}

func (f *fakeJobRepository) MarkFailed(id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.jobs[id].Status = models.ImportJobFailed
	f.jobs[id].FinishedAt = &now
	f.jobs[id].ErrorMessage = &message
	return nil
}

func (f *fakeJobRepository) AppendLog(jobID uuid.UUID, level, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, models.ImportLogEntry{JobID: jobID, Level: level, Message: message})
	return nil
}

func (f *fakeJobRepository) GetLogs(jobID uuid.UUID) ([]models.ImportLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var logs []models.ImportLogEntry
	for _, entry := range f.logs {
		if entry.JobID == jobID {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}

func (f *fakeJobRepository) status(id uuid.UUID) models.ImportJobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id].Status
}

type fakePipeline struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (p *fakePipeline) Run(job *models.ImportJob) (*ImportSummary, string, error) {
	p.mu.Lock()
	p.runs = append(p.runs, job.SessionID)
	p.mu.Unlock()
	if p.err != nil {
		return nil, "", p.err
	}
	return &ImportSummary{Staged: map[string]int64{"legacy_produto": 3}}, "/tmp/report.txt", nil
}

func (p *fakePipeline) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.runs)
}

func queuedJob(repo *fakeJobRepository, sessionID string) *models.ImportJob {
	job, _ := repo.CreateJob(&models.ImportJob{SessionID: sessionID, SessionDir: "/tmp/" + sessionID})
	return job
}

func TestProcessCompletesJob(t *testing.T) {
	repo := newFakeJobRepository()
	pipeline := &fakePipeline{}
	queue := NewImportQueue(repo, pipeline, zap.NewNop())

	job := queuedJob(repo, "s1")
	queue.process(job.ID)

	assert.Equal(t, models.ImportJobCompleted, repo.status(job.ID))
	assert.Equal(t, 1, pipeline.runCount())

	stored, err := repo.GetJobByID(job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReportPath)
	assert.Equal(t, "/tmp/report.txt", *stored.ReportPath)
	assert.NotNil(t, stored.FinishedAt)
	assert.Contains(t, string(stored.Summary), "legacy_produto")

	logs, err := repo.GetLogs(job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "import started", logs[0].Message)
	assert.Contains(t, logs[1].Message, "import completed in")
}

func TestProcessMarksFailureAndKeepsWorking(t *testing.T) {
	repo := newFakeJobRepository()
	pipeline := &fakePipeline{err: fmt.Errorf("missing required file PRODUTO.DBF")}
	queue := NewImportQueue(repo, pipeline, zap.NewNop())

	job := queuedJob(repo, "s1")
	queue.process(job.ID)

	assert.Equal(t, models.ImportJobFailed, repo.status(job.ID))
	stored, err := repo.GetJobByID(job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "missing required file PRODUTO.DBF", *stored.ErrorMessage)

	// A failed job does not poison the worker
	pipeline.err = nil
	next := queuedJob(repo, "s2")
	queue.process(next.ID)
	assert.Equal(t, models.ImportJobCompleted, repo.status(next.ID))
}

func TestProcessSkipsAlreadyHandledJobs(t *testing.T) {
	repo := newFakeJobRepository()
	pipeline := &fakePipeline{}
	queue := NewImportQueue(repo, pipeline, zap.NewNop())

	job := queuedJob(repo, "s1")
	require.NoError(t, repo.MarkRunning(job.ID))

	queue.process(job.ID)
	assert.Equal(t, 0, pipeline.runCount())
}

func TestStartRecoversInterruptedJobs(t *testing.T) {
	repo := newFakeJobRepository()
	pipeline := &fakePipeline{}
	queue := NewImportQueue(repo, pipeline, zap.NewNop())

	interrupted := queuedJob(repo, "crashed")
	require.NoError(t, repo.MarkRunning(interrupted.ID))
	waiting := queuedJob(repo, "waiting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, queue.Start(ctx))

	require.Eventually(t, func() bool {
		return repo.status(interrupted.ID) == models.ImportJobCompleted &&
			repo.status(waiting.ID) == models.ImportJobCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, pipeline.runCount())
}

func TestEnqueuePersistsBeforeDispatch(t *testing.T) {
	repo := newFakeJobRepository()
	queue := NewImportQueue(repo, &fakePipeline{}, zap.NewNop())

	created, err := queue.Enqueue(&models.ImportJob{SessionID: "s1", SessionDir: "/tmp/s1"})
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobQueued, repo.status(created.ID))
}

func TestNewSessionIDShape(t *testing.T) {
	id := NewSessionID()
	assert.Regexp(t, `^\d{8}-\d{6}-[0-9a-f]{6}$`, id)
}
