package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/pkg/jobs"
)

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type reportRecorder interface {
	RecordReportJob(reportType string, status models.ReportStatus)
}

// ReportWorker runs queued report jobs. A failing export is put back to
// queued until the queue gives up on it, at which point it is marked failed.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    reportRecorder
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportWorker constructs a worker. maxRetries must match the queue's.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics reportRecorder, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle is the jobs.Handler for the reports queue.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status == models.ReportStatusFinished || record.Status == models.ReportStatusFailed {
		w.logger.Debug("report job already settled", zap.String("job_id", job.ID), zap.String("status", string(record.Status)))
		return nil
	}

	if err := w.repo.Update(ctx, job.ID, progressParams(models.ReportStatusProcessing, 10)); err != nil {
		return err
	}
	log := w.logger.With(zap.String("job_id", job.ID), zap.String("type", string(record.Type)), zap.Int("attempt", job.Attempt))

	result, genErr := w.exporter.Generate(ctx, record)
	if genErr != nil {
		params := requeueParams(genErr.Error())
		final := job.Attempt >= w.maxRetries
		if final {
			params = failedParams(genErr.Error(), w.now())
		}
		if err := w.repo.Update(ctx, job.ID, params); err != nil {
			log.Warn("record report failure", zap.Error(err))
		}
		if final {
			log.Error("report job failed", zap.Error(genErr))
			w.record(record.Type, models.ReportStatusFailed)
		}
		return genErr
	}

	if err := w.repo.Update(ctx, job.ID, finishedParams(result.URL, w.now())); err != nil {
		log.Warn("record report result", zap.Error(err))
		return err
	}
	log.Info("report job finished", zap.String("path", result.RelativePath))
	w.record(record.Type, models.ReportStatusFinished)
	return nil
}

func (w *ReportWorker) record(reportType models.ReportType, status models.ReportStatus) {
	if w.metrics != nil {
		w.metrics.RecordReportJob(string(reportType), status)
	}
}

func progressParams(status models.ReportStatus, progress int) repository.UpdateReportJobParams {
	return repository.UpdateReportJobParams{Status: &status, Progress: &progress}
}

func requeueParams(reason string) repository.UpdateReportJobParams {
	params := progressParams(models.ReportStatusQueued, 0)
	params.ErrorMessage = &reason
	return params
}

func failedParams(reason string, at time.Time) repository.UpdateReportJobParams {
	params := progressParams(models.ReportStatusFailed, 100)
	params.ErrorMessage = &reason
	params.FinishedAt = &at
	return params
}

func finishedParams(url string, at time.Time) repository.UpdateReportJobParams {
	params := progressParams(models.ReportStatusFinished, 100)
	cleared := ""
	params.ResultURL = &url
	params.ErrorMessage = &cleared
	params.FinishedAt = &at
	return params
}
