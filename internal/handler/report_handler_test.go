package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/service"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
	lastRequest dto.ReportRequest
}

func (m *reportServiceMock) CreateJob(_ context.Context, _ *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	m.lastRequest = req
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(context.Context, *models.JWTClaims, string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerGenerateReport(t *testing.T) {
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodPost, "/reports", dto.ReportRequest{Type: models.ReportTypeTaskStatus, Format: models.ReportFormatCSV})
	withClaims(c, "tch-1", models.RoleTeacher)

	handler.GenerateReport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ReportTypeTaskStatus, mockSvc.lastRequest.Type)
}

func TestReportHandlerGenerateForbidden(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{createErr: appErrors.Clone(appErrors.ErrForbidden, "no")}, nil)

	c, w := newGinContext(http.MethodPost, "/reports", dto.ReportRequest{Type: models.ReportTypeSchoolSummary, Format: models.ReportFormatPDF})
	withClaims(c, "tch-1", models.RoleTeacher)

	handler.GenerateReport(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerReportStatus(t *testing.T) {
	mockSvc := &reportServiceMock{
		statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/reports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	withClaims(c, "tch-1", models.RoleTeacher)

	handler.ReportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandlerDownloadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("Task,Status\nFractions,pending\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:        file,
			Filename:    "report.csv",
			ContentType: "text/csv",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc, nil)

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.DownloadReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Task,Status\nFractions,pending\n", w.Body.String())
}

func TestReportHandlerDownloadRejectsBadToken(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid")}, nil)

	c, w := newGinContext(http.MethodGet, "/export/x", nil)
	c.Params = gin.Params{{Key: "token", Value: "x"}}
	handler.DownloadReport(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newGinContext(http.MethodGet, "/export/", nil)
	handler.DownloadReport(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
