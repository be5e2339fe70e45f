package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error
}

type signupService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error)
	Me(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	users   signupService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, users signupService) *AuthHandler {
	return &AuthHandler{service: svc, users: users}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Signup godoc
// @Summary Join a school as a student or parent
// @Description Requires the school's registration code. Parents link a student of the same school.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}
	user, err := h.users.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for current user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile as stored now
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	user, err := h.users.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
