package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboardResponse, bool, error)
	Teacher(ctx context.Context, claims *models.JWTClaims) (*dto.TeacherDashboardResponse, bool, error)
	School(ctx context.Context, claims *models.JWTClaims, schoolID string) (*dto.SchoolDashboardResponse, bool, error)
	Parent(ctx context.Context, claims *models.JWTClaims) (*dto.ParentDashboardResponse, bool, error)
	Management(ctx context.Context, claims *models.JWTClaims) (*dto.ManagementDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	serve(c, h.service, func(ctx context.Context, claims *models.JWTClaims) (interface{}, int64, bool, error) {
		res, hit, err := h.service.Student(ctx, claims)
		if err != nil {
			return nil, 0, false, err
		}
		return res, res.Meta.Version, hit, nil
	})
}

// Teacher godoc
// @Summary Teacher dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	serve(c, h.service, func(ctx context.Context, claims *models.JWTClaims) (interface{}, int64, bool, error) {
		res, hit, err := h.service.Teacher(ctx, claims)
		if err != nil {
			return nil, 0, false, err
		}
		return res, res.Meta.Version, hit, nil
	})
}

// School godoc
// @Summary School dashboard
// @Description Administrators always see their own school. Management must pass schoolId.
// @Tags Dashboard
// @Produce json
// @Param schoolId query string false "School ID (management only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/school [get]
func (h *DashboardHandler) School(c *gin.Context) {
	schoolID := strings.TrimSpace(c.Query("schoolId"))
	serve(c, h.service, func(ctx context.Context, claims *models.JWTClaims) (interface{}, int64, bool, error) {
		res, hit, err := h.service.School(ctx, claims, schoolID)
		if err != nil {
			return nil, 0, false, err
		}
		return res, res.Meta.Version, hit, nil
	})
}

// Parent godoc
// @Summary Parent dashboard for the linked child
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/parent [get]
func (h *DashboardHandler) Parent(c *gin.Context) {
	serve(c, h.service, func(ctx context.Context, claims *models.JWTClaims) (interface{}, int64, bool, error) {
		res, hit, err := h.service.Parent(ctx, claims)
		if err != nil {
			return nil, 0, false, err
		}
		return res, res.Meta.Version, hit, nil
	})
}

// Management godoc
// @Summary Network wide dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/management [get]
func (h *DashboardHandler) Management(c *gin.Context) {
	serve(c, h.service, func(ctx context.Context, claims *models.JWTClaims) (interface{}, int64, bool, error) {
		res, hit, err := h.service.Management(ctx, claims)
		if err != nil {
			return nil, 0, false, err
		}
		return res, res.Meta.Version, hit, nil
	})
}

func serve(c *gin.Context, svc dashboardService, load func(context.Context, *models.JWTClaims) (interface{}, int64, bool, error)) {
	if svc == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	payload, version, hit, err := load(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetVersion(c, version)
	response.JSON(c, http.StatusOK, payload, middleware.ExtractMeta(c))
}
