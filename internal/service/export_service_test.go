package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/storage"
)

func newExportFixture(t *testing.T) (*ExportService, string) {
	t.Helper()
	env := newTestEnv(t, seedDocument())
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewExportService(env.store, files, storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{}, nil, nil, nil)
	svc.now = fixedClock
	return svc, dir
}

func TestBuildDatasetTaskStatusUsesTeacherScope(t *testing.T) {
	svc, _ := newExportFixture(t)

	dataset, err := svc.BuildDataset(context.Background(), &models.ReportJob{
		ID: "job-1", Type: models.ReportTypeTaskStatus, Format: models.ReportFormatCSV, CreatedBy: "tch-1",
	})
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 2)
	for _, row := range dataset.Rows {
		assert.Equal(t, "Fractions", row["Task"])
		assert.Equal(t, string(models.StatusPending), row["Status"])
	}
	assert.Equal(t, "Pending 2, overdue 0, submitted 0, graded 0", dataset.Notes[1])
}

func TestBuildDatasetSchoolSummaryForManagement(t *testing.T) {
	svc, _ := newExportFixture(t)

	dataset, err := svc.BuildDataset(context.Background(), &models.ReportJob{
		ID: "job-2", Type: models.ReportTypeSchoolSummary, Format: models.ReportFormatPDF, CreatedBy: "mgt-1",
	})
	require.NoError(t, err)
	assert.Len(t, dataset.Rows, 2)
	assert.Contains(t, dataset.Notes[1], "2 schools, 3 tasks")
}

func TestBuildDatasetRejectsCreatorWithoutAccess(t *testing.T) {
	svc, _ := newExportFixture(t)
	ctx := context.Background()

	_, err := svc.BuildDataset(ctx, &models.ReportJob{ID: "job-3", Type: models.ReportTypeTaskStatus, CreatedBy: "stu-1"})
	assert.Error(t, err)
	_, err = svc.BuildDataset(ctx, &models.ReportJob{ID: "job-4", Type: models.ReportTypeTaskStatus, CreatedBy: "ghost"})
	assert.Error(t, err)
}

func TestExportGenerateStoresSignedFile(t *testing.T) {
	svc, dir := newExportFixture(t)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID: "job-5", Type: models.ReportTypeTaskStatus, Format: models.ReportFormatCSV, CreatedBy: "adm-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, "task_status_job-5_20240304_090000.csv", result.RelativePath)

	content, err := os.ReadFile(filepath.Join(dir, result.RelativePath))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Task,Subject,Class"))

	token, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-5", token.JobID)
	assert.Equal(t, result.RelativePath, token.Path)

	_, err = svc.Generate(context.Background(), &models.ReportJob{ID: "job-6", Type: models.ReportTypeTaskStatus, Format: "xlsx", CreatedBy: "adm-1"})
	assert.Error(t, err)
}
