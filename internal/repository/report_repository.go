package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutask-api/internal/models"
)

const reportJobColumns = `id, type, format, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository persists report job metadata in PostgreSQL or SQLite.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the report_jobs table when missing.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	timeType := "TIMESTAMP"
	if r.db.DriverName() == "postgres" {
		timeType = "TIMESTAMPTZ"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS report_jobs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	result_url TEXT NULL,
	created_by TEXT NOT NULL,
	created_at %[1]s NOT NULL,
	finished_at %[1]s NULL,
	error_message TEXT NULL
)`, timeType)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure report_jobs: %w", err)
	}
	return nil
}

// Create inserts a new report job row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	prepareReportJob(job)
	const query = `INSERT INTO report_jobs (` + reportJobColumns + `)
VALUES (:id, :type, :format, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := r.db.Rebind(`SELECT ` + reportJobColumns + ` FROM report_jobs WHERE id = ?`)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if params.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *params.Status)
	}
	if params.Progress != nil {
		set = append(set, "progress = ?")
		args = append(args, *params.Progress)
	}
	if params.ResultURL != nil {
		set = append(set, "result_url = ?")
		args = append(args, *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		set = append(set, "error_message = ?")
		args = append(args, *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		set = append(set, "finished_at = ?")
		args = append(args, *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	query := r.db.Rebind(fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = ?", strings.Join(set, ", ")))
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs, oldest first, for cold start recovery.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.Rebind(`SELECT ` + reportJobColumns + ` FROM report_jobs WHERE status = ? ORDER BY created_at ASC LIMIT ?`)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Rebind(`SELECT ` + reportJobColumns + ` FROM report_jobs WHERE status = ? AND finished_at IS NOT NULL AND finished_at < ? ORDER BY finished_at ASC LIMIT ?`)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	return jobs, nil
}

func prepareReportJob(job *models.ReportJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}
