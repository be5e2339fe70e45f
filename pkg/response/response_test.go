package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func TestJSONWritesEnvelopeWithMeta(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, []string{"a"}, map[string]interface{}{"version": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `["a"]`, string(body["data"]))
	assert.JSONEq(t, `{"version":3}`, string(body["meta"]))
	assert.NotContains(t, body, "error")
}

func TestListAddsCount(t *testing.T) {
	c, rec := newContext()
	List(c, []int{1, 2}, 2)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[1,2],"meta":{"count":2}}`, rec.Body.String())
}

func TestErrorMapsTypedAndPlainErrors(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "task not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), "task not found")

	c, rec = newContext()
	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestCreatedAndNoContent(t *testing.T) {
	c, rec := newContext()
	Created(c, map[string]string{"id": "tsk-1"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newContext()
	NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
