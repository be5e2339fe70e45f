package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type feeService interface {
	List(ctx context.Context, claims *models.JWTClaims) ([]dto.FeeView, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateFeeRequest) (*models.Fee, error)
	Pay(ctx context.Context, claims *models.JWTClaims, id string) (*models.Fee, error)
}

// FeeHandler serves student fees.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(service feeService) *FeeHandler {
	return &FeeHandler{service: service}
}

// List godoc
// @Summary List fees visible to the caller
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
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

// Create godoc
// @Summary Bill a student
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateFeeRequest
	if !bindJSON(c, &req, "invalid fee payload") {
		return
	}
	fee, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Pay godoc
// @Summary Mark a fee as paid
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/pay [post]
func (h *FeeHandler) Pay(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	fee, err := h.service.Pay(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee)
}
