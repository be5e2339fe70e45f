package models

import "time"

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	ReportTypeTaskStatus    ReportType = "task_status"
	ReportTypeSchoolSummary ReportType = "school_summary"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob tracks a background export requested by a user. The export is
// computed from the creator's scoped view at generation time.
type ReportJob struct {
	ID           string       `db:"id" json:"id"`
	Type         ReportType   `db:"type" json:"type"`
	Format       ReportFormat `db:"format" json:"format"`
	Status       ReportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
}
