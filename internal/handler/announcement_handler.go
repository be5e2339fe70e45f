package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, claims *models.JWTClaims) ([]models.Announcement, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.PostAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// AnnouncementHandler serves school announcements.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// List godoc
// @Summary List announcements addressed to the caller
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
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
// @Summary Post an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.PostAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.PostAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
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
// @Summary Delete an announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
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
