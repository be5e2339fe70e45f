package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/export"
	"github.com/noah-isme/edutask-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type snapshotReader interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets from the creator's view of the
// document and persists rendered files.
type ExportService struct {
	store     snapshotReader
	storage   fileStorage
	renderers map[models.ReportFormat]datasetRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// CSV and PDF exporters.
func NewExportService(docs snapshotReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		store:   docs,
		storage: files,
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatCSV: csv,
			models.ReportFormatPDF: pdf,
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds the dataset for the job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Format)
	}
	dataset, err := s.BuildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.Int("rows", len(dataset.Rows)), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// BuildDataset computes the rows of a report as the creator would see them
// right now.
func (s *ExportService) BuildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	creator, ok := snap.Document.FindUser(job.CreatedBy)
	if !ok {
		return export.Dataset{}, fmt.Errorf("report creator %s no longer exists", job.CreatedBy)
	}
	if !CanRequestReport(creator.Role, job.Type) {
		return export.Dataset{}, fmt.Errorf("role %s may not build %s reports", creator.Role, job.Type)
	}

	switch job.Type {
	case models.ReportTypeTaskStatus:
		return s.taskStatusDataset(snap.Document, creator), nil
	case models.ReportTypeSchoolSummary:
		return s.schoolSummaryDataset(snap.Document, creator), nil
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// ContentType returns the media type of files rendered in the format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, job.ID, timestamp, job.Format)
}

func (s *ExportService) taskStatusDataset(doc models.Document, creator models.User) export.Dataset {
	now := s.now()
	tasks := domain.VisibleTasks(doc, creator)
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[i].ID < tasks[j].ID
	})
	students := domain.VisibleStudents(doc, creator)

	totals := map[models.SubmissionStatus]int{}
	rows := make([]map[string]string, 0)
	for _, task := range tasks {
		for _, student := range students {
			if student.SchoolID != task.SchoolID || student.ClassLevel != task.ClassLevel {
				continue
			}
			status := domain.SubmissionStatus(task, student.ID, now)
			totals[status]++
			grade := ""
			if sub, ok := task.SubmissionFor(student.ID); ok && sub.Grade != nil {
				grade = *sub.Grade
			}
			rows = append(rows, map[string]string{
				"Task":        task.Title,
				"Subject":     task.Subject,
				"Class":       fmt.Sprintf("%d", task.ClassLevel),
				"Due Date":    task.DueDate.UTC().Format("2006-01-02"),
				"Student":     student.Name,
				"Roll Number": student.RollNumber,
				"Status":      string(status),
				"Grade":       grade,
			})
		}
	}

	return export.Dataset{
		Title:   "Task Status Report",
		Headers: []string{"Task", "Subject", "Class", "Due Date", "Student", "Roll Number", "Status", "Grade"},
		Rows:    rows,
		Notes: []string{
			fmt.Sprintf("Generated %s for %s", now.Format(time.RFC3339), creator.Name),
			fmt.Sprintf("Pending %d, overdue %d, submitted %d, graded %d",
				totals[models.StatusPending], totals[models.StatusOverdue], totals[models.StatusSubmitted], totals[models.StatusGraded]),
		},
	}
}

func (s *ExportService) schoolSummaryDataset(doc models.Document, creator models.User) export.Dataset {
	schools := domain.VisibleSchools(doc, creator)
	rollups := make([]domain.SchoolRollup, 0, len(schools))
	rows := make([]map[string]string, 0, len(schools))
	for _, school := range schools {
		teachers, students, tasks := schoolSlice(doc, creator, school.ID)
		r := domain.RollupSchool(school.ID, teachers, students, tasks)
		rollups = append(rollups, r)
		rows = append(rows, map[string]string{
			"School":              school.Name,
			"City":                school.City,
			"Teachers":            fmt.Sprintf("%d", r.TeacherCount),
			"Students":            fmt.Sprintf("%d", r.StudentCount),
			"Tasks":               fmt.Sprintf("%d", r.TaskCount),
			"Submissions":         fmt.Sprintf("%d", r.SubmissionCount),
			"Graded":              fmt.Sprintf("%d", r.GradedCount),
			"Submission Rate (%)": fmt.Sprintf("%d", r.SubmissionRate),
		})
	}
	network := domain.RollupNetwork(rollups)

	return export.Dataset{
		Title:   "School Summary Report",
		Headers: []string{"School", "City", "Teachers", "Students", "Tasks", "Submissions", "Graded", "Submission Rate (%)"},
		Rows:    rows,
		Notes: []string{
			fmt.Sprintf("Generated %s for %s", s.now().Format(time.RFC3339), creator.Name),
			fmt.Sprintf("%d schools, %d tasks, %d submissions, overall submission rate %d%%",
				network.SchoolCount, network.TaskCount, network.SubmissionCount, network.SubmissionRate),
		},
	}
}

// CanRequestReport reports whether the role may request reports of the type.
func CanRequestReport(role models.UserRole, reportType models.ReportType) bool {
	switch reportType {
	case models.ReportTypeTaskStatus:
		return role == models.RoleTeacher || role == models.RoleSchoolAdmin || role == models.RoleManagement
	case models.ReportTypeSchoolSummary:
		return role == models.RoleSchoolAdmin || role == models.RoleManagement
	default:
		return false
	}
}
