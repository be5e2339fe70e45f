package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func perform(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.Any("/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/tasks", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWildcardPolicy(t *testing.T) {
	rec := perform(nil, http.MethodGet, "https://app.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestListedOriginPreflight(t *testing.T) {
	rec := perform([]string{"https://App.example.com/"}, http.MethodOptions, "https://app.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestUnlistedOrigin(t *testing.T) {
	allowed := []string{"https://app.example.com"}

	rec := perform(allowed, http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(allowed, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoOriginPassesThrough(t *testing.T) {
	rec := perform([]string{"https://app.example.com"}, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
