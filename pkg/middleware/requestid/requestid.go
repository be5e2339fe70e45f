// Package requestid tags every request with an identifier that is echoed in
// the X-Request-ID response header and attached to log entries.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the request id in both directions.
	Header     = "X-Request-ID"
	contextKey = "request_id"
	maxLength  = 64
)

// Middleware reuses a well-formed client supplied id or mints a UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the id stored by Middleware, or "" outside of it.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
