package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

type fakeDashboardSrv struct {
	hit      bool
	schoolID string
	err      error
}

func (f *fakeDashboardSrv) Student(context.Context, *models.JWTClaims) (*dto.StudentDashboardResponse, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.StudentDashboardResponse{StudentID: "stu-1", Meta: dto.DashboardMeta{Version: 4}}, f.hit, nil
}

func (f *fakeDashboardSrv) Teacher(context.Context, *models.JWTClaims) (*dto.TeacherDashboardResponse, bool, error) {
	return &dto.TeacherDashboardResponse{TeacherID: "tch-1", Meta: dto.DashboardMeta{Version: 4}}, f.hit, nil
}

func (f *fakeDashboardSrv) School(_ context.Context, _ *models.JWTClaims, schoolID string) (*dto.SchoolDashboardResponse, bool, error) {
	f.schoolID = schoolID
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.SchoolDashboardResponse{School: models.School{ID: schoolID}, Meta: dto.DashboardMeta{Version: 4}}, f.hit, nil
}

func (f *fakeDashboardSrv) Parent(context.Context, *models.JWTClaims) (*dto.ParentDashboardResponse, bool, error) {
	return &dto.ParentDashboardResponse{Meta: dto.DashboardMeta{Version: 4}}, f.hit, nil
}

func (f *fakeDashboardSrv) Management(context.Context, *models.JWTClaims) (*dto.ManagementDashboardResponse, bool, error) {
	return &dto.ManagementDashboardResponse{Meta: dto.DashboardMeta{Version: 4}}, f.hit, nil
}

func TestDashboardHandlerStudentMeta(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{hit: true})
	c, w := newGinContext(http.MethodGet, "/dashboard/student", nil)
	withClaims(c, "stu-1", models.RoleStudent)

	h.Student(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, float64(4), env.Meta["version"])
	assert.Contains(t, string(env.Data), `"studentId":"stu-1"`)
}

func TestDashboardHandlerSchoolPassesQuery(t *testing.T) {
	svc := &fakeDashboardSrv{}
	h := NewDashboardHandler(svc)
	c, w := newGinContext(http.MethodGet, "/dashboard/school?schoolId=%20sch-2%20", nil)
	withClaims(c, "mgt-1", models.RoleManagement)

	h.School(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sch-2", svc.schoolID)
	assert.Equal(t, false, decode(t, w).Meta["cache_hit"])
}

func TestDashboardHandlerErrors(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrForbidden, "nope")})

	c, w := newGinContext(http.MethodGet, "/dashboard/student", nil)
	withClaims(c, "tch-1", models.RoleTeacher)
	h.Student(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newGinContext(http.MethodGet, "/dashboard/student", nil)
	h.Student(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/dashboard/teacher", nil)
	withClaims(c, "tch-1", models.RoleTeacher)
	NewDashboardHandler(nil).Teacher(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDashboardHandlerOtherRoles(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{})
	for name, call := range map[string]gin.HandlerFunc{
		"teacher":    h.Teacher,
		"parent":     h.Parent,
		"management": h.Management,
	} {
		c, w := newGinContext(http.MethodGet, "/dashboard/"+name, nil)
		withClaims(c, "user", models.RoleManagement)
		call(c)
		assert.Equal(t, http.StatusOK, w.Code, name)
	}
}
