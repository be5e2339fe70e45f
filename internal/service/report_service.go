package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
	"github.com/noah-isme/edutask-api/pkg/jobs"
)

const (
	recoverBatch = 50
	cleanupBatch = 100
)

var errReportNotFound = appErrors.Clone(appErrors.ErrNotFound, "report job not found")

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	docs      snapshotReader
	repo      reportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// NewReportService constructs the report service.
func NewReportService(docs snapshotReader, repo reportJobStore, queue jobDispatcher, exporter *ExportService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		docs:      docs,
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request against the caller's role, persists the job
// and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, claims *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report request")
	}
	snap, err := s.docs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := resolveViewer(snap.Document, claims)
	if err != nil {
		return nil, err
	}
	if !CanRequestReport(actor.Role, req.Type) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" may not request "+string(req.Type)+" reports")
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Format:    req.Format,
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		if markErr := s.repo.Update(ctx, job.ID, failedParams("report queue unavailable", time.Now().UTC())); markErr != nil {
			s.logger.Warn("mark unqueued report job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "report queue is busy, try again later")
	}
	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.String("user_id", actor.ID))
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress, CreatedAt: job.CreatedAt}, nil
}

// GetStatus exposes job metadata to its creator. Jobs of other users read as
// missing.
func (s *ReportService) GetStatus(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportStatusResponse, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.CreatedBy != claims.UserID {
		return nil, errReportNotFound
	}
	resp := &dto.ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Format:     job.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
		ResultURL:  job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	parsed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.loadJob(ctx, parsed.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ReportStatusFinished || job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link is no longer valid")
	}
	file, err := s.exporter.Open(parsed.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(parsed.Path),
		ContentType: s.exporter.ContentType(job.Format),
		ExpiresAt:   parsed.ExpiresAt,
	}, nil
}

func (s *ReportService) loadJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, errReportNotFound
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

// RecoverPendingJobs hands jobs still marked queued back to the queue, for
// instance after a restart dropped the in-memory buffer.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, recoverBatch)
	if err != nil {
		s.logger.Warn("list queued report jobs", zap.Error(err))
		return
	}
	requeued := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("requeue report job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	if requeued > 0 {
		s.logger.Info("report jobs recovered", zap.Int("count", requeued))
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

// cleanupExpired deletes the files of jobs whose links have expired, then
// sweeps any stray files older than the result TTL.
func (s *ReportService) cleanupExpired(ctx context.Context) {
	expired, err := s.repo.ListFinishedBefore(ctx, time.Now().Add(-s.cfg.ResultTTL), cleanupBatch)
	if err != nil {
		s.logger.Warn("list expired report jobs", zap.Error(err))
		return
	}
	removed := 0
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		parsed, err := s.exporter.ParseToken(extractToken(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.exporter.Delete(parsed.Path); err != nil {
			s.logger.Warn("delete expired export", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		removed++
	}
	swept, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("sweep export directory", zap.Error(err))
	}
	if removed+len(swept) > 0 {
		s.logger.Info("expired exports removed", zap.Int("jobs", removed), zap.Int("stray_files", len(swept)))
	}
}

// extractToken returns the last path segment of a download URL.
func extractToken(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
