package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/service"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, claims *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes asynchronous report endpoints.
type ReportHandler struct {
	service reportService
	logger  *zap.Logger
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{service: svc, logger: logger}
}

// GenerateReport godoc
// @Summary Queue a report
// @Description task_status is open to teachers, administrators and management; school_summary to administrators and management.
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	res, err := h.service.CreateJob(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) ReportStatus(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	res, err := h.service.GetStatus(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// DownloadReport godoc
// @Summary Download a finished report
// @Description The signed token is the credential, so no bearer token is needed.
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Header("Expires", download.ExpiresAt.UTC().Format(http.TimeFormat))
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, download.Filename),
	})
	h.logger.Debug("report downloaded", zap.String("file", download.Filename), zap.Int64("bytes", info.Size()), zap.Duration("ttl", time.Until(download.ExpiresAt)))
}
