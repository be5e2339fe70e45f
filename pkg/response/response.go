// Package response writes the JSON envelope shared by every endpoint:
// {"data": ..., "meta": ...} on success and {"error": ...} on failure.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes data with optional metadata. Responses are per viewer so they
// are never cached by intermediaries.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	env := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		env.Meta = meta[0]
	}
	c.JSON(status, env)
}

// List writes a collection together with its size.
func List(c *gin.Context, items interface{}, count int) {
	JSON(c, http.StatusOK, items, map[string]interface{}{"count": count})
}

// Created responds with 201 and the new resource.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error renders err through its typed form; untyped errors become a generic
// 500 without leaking their text.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent responds with 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
