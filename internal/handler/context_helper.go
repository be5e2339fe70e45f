package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
	"github.com/noah-isme/edutask-api/pkg/response"
)

// requireClaims writes 401 and returns nil when the request carries no claims.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// bindJSON decodes the body and writes 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
