package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// MemoryReportRepository keeps report jobs in process memory. It backs the
// memory store driver, where jobs do not survive a restart anyway.
type MemoryReportRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ReportJob
}

// NewMemoryReportRepository constructs an empty repository.
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{jobs: make(map[string]models.ReportJob)}
}

// Create stores a new job.
func (r *MemoryReportRepository) Create(_ context.Context, job *models.ReportJob) error {
	prepareReportJob(job)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("create report job: duplicate id %s", job.ID)
	}
	r.jobs[job.ID] = copyReportJob(*job)
	return nil
}

// GetByID returns a copy of the job.
func (r *MemoryReportRepository) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get report job: %w", sql.ErrNoRows)
	}
	clone := copyReportJob(job)
	return &clone, nil
}

// Update applies the provided changes.
func (r *MemoryReportRepository) Update(_ context.Context, id string, params UpdateReportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("update report job: %w", sql.ErrNoRows)
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		finished := *params.FinishedAt
		job.FinishedAt = &finished
	}
	r.jobs[id] = job
	return nil
}

// ListQueued returns queued jobs, oldest first.
func (r *MemoryReportRepository) ListQueued(_ context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.filter(limit, func(job models.ReportJob) bool {
		return job.Status == models.ReportStatusQueued
	}, func(a, b models.ReportJob) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

// ListFinishedBefore returns finished jobs older than cutoff.
func (r *MemoryReportRepository) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.filter(limit, func(job models.ReportJob) bool {
		return job.Status == models.ReportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
	}, func(a, b models.ReportJob) bool {
		return a.FinishedAt.Before(*b.FinishedAt)
	}), nil
}

func (r *MemoryReportRepository) filter(limit int, keep func(models.ReportJob) bool, less func(a, b models.ReportJob) bool) []models.ReportJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]models.ReportJob, 0)
	for _, job := range r.jobs {
		if keep(job) {
			result = append(result, copyReportJob(job))
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func copyReportJob(job models.ReportJob) models.ReportJob {
	clone := job
	if job.ResultURL != nil {
		url := *job.ResultURL
		clone.ResultURL = &url
	}
	if job.ErrorMessage != nil {
		msg := *job.ErrorMessage
		clone.ErrorMessage = &msg
	}
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		clone.FinishedAt = &finished
	}
	return clone
}
