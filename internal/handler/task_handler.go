package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateTaskRequest) (*models.Task, error)
	Delete(ctx context.Context, claims *models.JWTClaims, taskID string) error
	Submit(ctx context.Context, claims *models.JWTClaims, taskID string, req dto.SubmitTaskRequest) (*models.Submission, error)
	Grade(ctx context.Context, claims *models.JWTClaims, taskID, studentID string, req dto.GradeSubmissionRequest) (*models.Submission, error)
	List(ctx context.Context, claims *models.JWTClaims, filter dto.TaskFilter) ([]dto.TaskView, error)
	StatusOf(ctx context.Context, claims *models.JWTClaims, taskID, studentID string) (*dto.TaskStatusResponse, error)
}

// TaskHandler exposes the task and submission lifecycle.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(service taskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List godoc
// @Summary List tasks visible to the caller
// @Tags Tasks
// @Produce json
// @Param subject query string false "Subject filter"
// @Param status query string false "Derived status filter (pending, overdue, submitted, graded)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	filter := dto.TaskFilter{
		Subject: strings.TrimSpace(c.Query("subject")),
		Status:  models.SubmissionStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}
	tasks, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, tasks, len(tasks))
}

// Create godoc
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req, "invalid task payload") {
		return
	}
	task, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Delete godoc
// @Summary Delete a task with its submissions
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
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

// Submit godoc
// @Summary Submit or resubmit work for a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.SubmitTaskRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/submissions [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SubmitTaskRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Grade godoc
// @Summary Grade a student's submission
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.GradeSubmissionRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/submissions/{studentId}/grade [put]
func (h *TaskHandler) Grade(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.GradeSubmissionRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	sub, err := h.service.Grade(c.Request.Context(), claims, c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Status godoc
// @Summary Derived status of a student's work on a task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Param studentId query string false "Student ID, defaults to the caller or their child"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/status [get]
func (h *TaskHandler) Status(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	status, err := h.service.StatusOf(c.Request.Context(), claims, c.Param("id"), strings.TrimSpace(c.Query("studentId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
