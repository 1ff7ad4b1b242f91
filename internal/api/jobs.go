package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-ai/internal/models"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// GenerationJob tracks one background question generation that the
// frontend polls.
type GenerationJob struct {
	ID        string                     `json:"jobId"`
	Status    string                     `json:"status"`
	Subject   string                     `json:"subject"`
	Requested int                        `json:"numQuestions"`
	Step      string                     `json:"step,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Percent   int                        `json:"percent"`
	Questions []models.GeneratedQuestion `json:"questions,omitempty"`
	Error     string                     `json:"error,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`

	cancel context.CancelFunc
}

// jobRetention is how long a finished job stays pollable.
const jobRetention = 15 * time.Minute

type JobManager struct {
	mu        sync.RWMutex
	jobs      map[string]*GenerationJob
	retention time.Duration
	now       func() time.Time
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs:      make(map[string]*GenerationJob),
		retention: jobRetention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob registers a pending job. cancel is invoked by Cancel.
func (m *JobManager) CreateJob(subject string, requested int, cancel context.CancelFunc) (string, *GenerationJob) {
	now := m.now()
	job := &GenerationJob{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Subject:   subject,
		Requested: requested,
		CreatedAt: now,
		UpdatedAt: now,
		cancel:    cancel,
	}

	m.mu.Lock()
	m.sweepLocked(now)
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.clone()
}

func (m *JobManager) GetJob(id string) (*GenerationJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	var snapshot *GenerationJob
	if ok {
		snapshot = job.clone()
	}
	m.mu.RUnlock()
	return snapshot, ok
}

func (m *JobManager) MarkProcessing(id string) {
	m.withActiveJob(id, func(job *GenerationJob) {
		job.Status = JobStatusProcessing
	})
}

func (m *JobManager) UpdateProgress(id, step, message string, current, total int) {
	m.withActiveJob(id, func(job *GenerationJob) {
		job.Status = JobStatusProcessing
		job.Step = step
		job.Message = message
		job.Percent = percent(current, total)
	})
}

// MarkCompleted records the result unless the job was cancelled first.
func (m *JobManager) MarkCompleted(id string, questions []models.GeneratedQuestion) {
	m.withActiveJob(id, func(job *GenerationJob) {
		job.Status = JobStatusComplete
		job.Step = "complete"
		job.Percent = 100
		job.Questions = append([]models.GeneratedQuestion(nil), questions...)
		job.release()
	})
}

func (m *JobManager) MarkFailed(id string, msg string) {
	m.withActiveJob(id, func(job *GenerationJob) {
		job.Status = JobStatusFailed
		job.Step = "error"
		job.Error = strings.TrimSpace(msg)
		job.release()
	})
}

// Cancel stops a pending or processing job. It reports false for unknown
// jobs and for jobs that already finished.
func (m *JobManager) Cancel(id string) (*GenerationJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.finished() {
		return nil, false
	}
	job.Status = JobStatusCancelled
	job.Message = "Cancelado pelo usuário"
	job.UpdatedAt = m.now()
	job.release()
	return job.clone(), true
}

func (m *JobManager) withActiveJob(id string, fn func(job *GenerationJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.finished() {
		return
	}
	fn(job)
	job.UpdatedAt = m.now()
}

// Sweep drops finished jobs that have not changed for longer than the
// retention window and returns how many were removed.
func (m *JobManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *JobManager) sweepLocked(now time.Time) int {
	removed := 0
	for id, job := range m.jobs {
		if job.finished() && now.Sub(job.UpdatedAt) > m.retention {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

func (job *GenerationJob) finished() bool {
	switch job.Status {
	case JobStatusComplete, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

func (job *GenerationJob) release() {
	if job.cancel != nil {
		job.cancel()
		job.cancel = nil
	}
}

func (job *GenerationJob) clone() *GenerationJob {
	if job == nil {
		return nil
	}
	copyJob := *job
	copyJob.cancel = nil
	if len(job.Questions) > 0 {
		copyJob.Questions = make([]models.GeneratedQuestion, len(job.Questions))
		for i, q := range job.Questions {
			copyJob.Questions[i] = models.GeneratedQuestion{
				Question:     q.Question,
				Alternatives: append([]models.Alternative(nil), q.Alternatives...),
			}
		}
	}
	return &copyJob
}

func percent(current, total int) int {
	if total <= 0 || current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
