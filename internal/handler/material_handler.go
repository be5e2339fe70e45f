package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type materialService interface {
	List(ctx context.Context, claims *models.JWTClaims) ([]models.StudyMaterial, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.StudyMaterial, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateMaterialRequest) (*models.StudyMaterial, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// MaterialHandler serves study materials.
type MaterialHandler struct {
	service materialService
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(service materialService) *MaterialHandler {
	return &MaterialHandler{service: service}
}

// List godoc
// @Summary List study materials visible to the caller
// @Tags Materials
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
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
// @Summary Get a study material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
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
// @Summary Publish a study material
// @Tags Materials
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateMaterialRequest
	if !bindJSON(c, &req, "invalid material payload") {
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
// @Summary Delete a study material
// @Tags Materials
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
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
