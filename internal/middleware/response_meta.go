package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	cacheHitKey      = "cache_hit"
	versionKey       = "version"
	processingTimeMs = "processing_time_ms"
)

// WithResponseMeta marks the request start so ExtractMeta can report the
// processing time in the response body.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the dashboard cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetVersion records the document version the payload was computed from.
func SetVersion(c *gin.Context, version int64) {
	ensureMeta(c)[versionKey] = version
}

// ExtractMeta returns the metadata recorded for the response, or nil when
// none was set. The elapsed time is stamped at the moment of the call.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Get(requestStartKey); ok {
		if t, ok := start.(time.Time); ok {
			meta[processingTimeMs] = time.Since(t).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if raw, ok := c.Get(responseMetaKey); ok {
		if meta, ok := raw.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
