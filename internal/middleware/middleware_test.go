package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

type validatorStub struct{}

func (validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "teacher":
		return &models.JWTClaims{UserID: "tch-1", Role: models.RoleTeacher}, nil
	case "student":
		return &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, nil
	default:
		return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
}

type observerStub struct {
	mu    sync.Mutex
	paths []string
	codes []int
}

func (o *observerStub) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, path)
	o.codes = append(o.codes, status)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/tasks/:id", chain...)
	return r
}

func perform(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tasks/task-1", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRoles(t *testing.T) {
	r := newRouter(JWT(validatorStub{}), RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin))

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Token teacher").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer forged").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer student").Code)
	assert.Equal(t, http.StatusOK, perform(r, "bearer teacher").Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	r := newRouter(RequireRoles(models.RoleTeacher))
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer teacher").Code)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(JWT(validatorStub{}), Audit(zap.New(core), "delete", "task"))

	perform(r, "Bearer teacher")
	perform(r, "Bearer forged")

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "task-1", fields["resource_id"])
	assert.Equal(t, "tch-1", fields["user_id"])
	assert.Equal(t, "delete", fields["action"])
}

func TestMetricsObservesRoutePattern(t *testing.T) {
	obs := &observerStub{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(obs))
	r.POST("/tasks/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	perform(r, "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, []string{"/tasks/:id", "unmatched"}, obs.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, obs.codes)
}

func TestResponseMetaHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, true)
	SetVersion(c, 7)
	meta := ExtractMeta(c)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, int64(7), meta["version"])
	assert.NotContains(t, meta, "processing_time_ms")
}

func TestResponseMetaCarriesProcessingTime(t *testing.T) {
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetVersion(c, 3)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	rec := perform(r, "")
	assert.Contains(t, rec.Body.String(), `"processing_time_ms"`)
	assert.Contains(t, rec.Body.String(), `"version":3`)
}
