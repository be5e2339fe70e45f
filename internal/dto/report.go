package dto

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// ReportRequest asks for an export of the caller's scoped view.
type ReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required,oneof=task_status school_summary"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse acknowledges a queued export.
type ReportJobResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ReportStatusResponse describes a job to its creator. ResultURL is a signed
// download link and appears once the job finished.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Format     models.ReportFormat `json:"format"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
}
