package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type quizService interface {
	List(ctx context.Context, claims *models.JWTClaims) ([]models.Quiz, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Quiz, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	Attempt(ctx context.Context, claims *models.JWTClaims, id string, req dto.QuizAttemptRequest) (*models.QuizAttempt, error)
}

// QuizHandler serves quizzes and attempts.
type QuizHandler struct {
	service quizService
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service quizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// List godoc
// @Summary List quizzes visible to the caller
// @Description Correct answers are hidden from students and parents.
// @Tags Quizzes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /quizzes [get]
func (h *QuizHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	items, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// Get godoc
// @Summary Get a quiz
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	item, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Create a quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body dto.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateQuizRequest
	if !bindJSON(c, &req, "invalid quiz payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Delete godoc
// @Summary Delete a quiz
// @Tags Quizzes
// @Param id path string true "Quiz ID"
// @Success 204
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attempt godoc
// @Summary Answer a quiz
// @Description Replaces the caller's previous attempt.
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body dto.QuizAttemptRequest true "Answers keyed by question id"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) Attempt(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.QuizAttemptRequest
	if !bindJSON(c, &req, "invalid attempt payload") {
		return
	}
	attempt, err := h.service.Attempt(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempt)
}
