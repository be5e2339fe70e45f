package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type userService interface {
	RegisterSchool(ctx context.Context, req dto.RegisterSchoolRequest) (*dto.RegisterSchoolResponse, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error)
	Students(ctx context.Context, claims *models.JWTClaims) ([]models.User, error)
	Teachers(ctx context.Context, claims *models.JWTClaims) ([]models.User, error)
	Schools(ctx context.Context, claims *models.JWTClaims) ([]models.School, error)
}

// UserHandler handles schools and user rosters.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// RegisterSchool godoc
// @Summary Register a school with its first administrator
// @Description Generates a unique six character registration code.
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body dto.RegisterSchoolRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/register [post]
func (h *UserHandler) RegisterSchool(c *gin.Context) {
	var req dto.RegisterSchoolRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	res, err := h.service.RegisterSchool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Schools godoc
// @Summary List schools visible to the caller
// @Tags Schools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *UserHandler) Schools(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	schools, err := h.service.Schools(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, schools, len(schools))
}

// Create godoc
// @Summary Create a user in the administrator's school
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateUserRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	user, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Students godoc
// @Summary List students visible to the caller
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/students [get]
func (h *UserHandler) Students(c *gin.Context) {
	h.roster(c, h.service.Students)
}

// Teachers godoc
// @Summary List teachers visible to the caller
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/teachers [get]
func (h *UserHandler) Teachers(c *gin.Context) {
	h.roster(c, h.service.Teachers)
}

func (h *UserHandler) roster(c *gin.Context, load func(context.Context, *models.JWTClaims) ([]models.User, error)) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	users, err := load(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users, len(users))
}
