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

type fakeQuizService struct {
	answers map[string]int
}

func (f *fakeQuizService) List(context.Context, *models.JWTClaims) ([]models.Quiz, error) {
	return []models.Quiz{{ID: "quiz-1"}}, nil
}

func (f *fakeQuizService) Get(_ context.Context, _ *models.JWTClaims, id string) (*models.Quiz, error) {
	if id != "quiz-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
	}
	return &models.Quiz{ID: id}, nil
}

func (f *fakeQuizService) Create(_ context.Context, _ *models.JWTClaims, req dto.CreateQuizRequest) (*models.Quiz, error) {
	return &models.Quiz{ID: "quiz-2", Title: req.Title}, nil
}

func (f *fakeQuizService) Delete(context.Context, *models.JWTClaims, string) error { return nil }

func (f *fakeQuizService) Attempt(_ context.Context, claims *models.JWTClaims, _ string, req dto.QuizAttemptRequest) (*models.QuizAttempt, error) {
	f.answers = req.Answers
	return &models.QuizAttempt{StudentID: claims.UserID, Score: 50}, nil
}

type fakeFeeService struct {
	paid string
}

func (f *fakeFeeService) List(context.Context, *models.JWTClaims) ([]dto.FeeView, error) {
	return []dto.FeeView{{Fee: models.Fee{ID: "fee-1"}, EffectiveStatus: models.FeeStatusOverdue}}, nil
}

func (f *fakeFeeService) Create(_ context.Context, _ *models.JWTClaims, req dto.CreateFeeRequest) (*models.Fee, error) {
	return &models.Fee{ID: "fee-2", StudentID: req.StudentID}, nil
}

func (f *fakeFeeService) Pay(_ context.Context, claims *models.JWTClaims, id string) (*models.Fee, error) {
	if claims.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot pay")
	}
	f.paid = id
	return &models.Fee{ID: id, Status: models.FeeStatusPaid}, nil
}

type fakeAnnouncementService struct {
	req dto.PostAnnouncementRequest
}

func (f *fakeAnnouncementService) List(context.Context, *models.JWTClaims) ([]models.Announcement, error) {
	return nil, nil
}

func (f *fakeAnnouncementService) Create(_ context.Context, _ *models.JWTClaims, req dto.PostAnnouncementRequest) (*models.Announcement, error) {
	f.req = req
	return &models.Announcement{ID: "ann-1", TargetRoles: req.TargetRoles}, nil
}

func (f *fakeAnnouncementService) Delete(context.Context, *models.JWTClaims, string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
}

type fakeMaterialService struct{}

func (fakeMaterialService) List(context.Context, *models.JWTClaims) ([]models.StudyMaterial, error) {
	return []models.StudyMaterial{{ID: "mat-1"}, {ID: "mat-2"}}, nil
}

func (fakeMaterialService) Get(_ context.Context, _ *models.JWTClaims, id string) (*models.StudyMaterial, error) {
	return &models.StudyMaterial{ID: id}, nil
}

func (fakeMaterialService) Create(_ context.Context, _ *models.JWTClaims, req dto.CreateMaterialRequest) (*models.StudyMaterial, error) {
	return &models.StudyMaterial{ID: "mat-3", Title: req.Title}, nil
}

func (fakeMaterialService) Delete(context.Context, *models.JWTClaims, string) error { return nil }

func TestQuizHandlerAttempt(t *testing.T) {
	svc := &fakeQuizService{}
	h := NewQuizHandler(svc)
	c, w := newGinContext(http.MethodPost, "/quizzes/quiz-1/attempts", map[string]interface{}{"answers": map[string]int{"q1": 2}})
	c.Params = gin.Params{{Key: "id", Value: "quiz-1"}}
	withClaims(c, "stu-1", models.RoleStudent)

	h.Attempt(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"q1": 2}, svc.answers)
	assert.Contains(t, string(decode(t, w).Data), `"score":50`)
}

func TestQuizHandlerGetMissing(t *testing.T) {
	h := NewQuizHandler(&fakeQuizService{})
	c, w := newGinContext(http.MethodGet, "/quizzes/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	withClaims(c, "stu-1", models.RoleStudent)

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeeHandlerPay(t *testing.T) {
	svc := &fakeFeeService{}
	h := NewFeeHandler(svc)

	c, w := newGinContext(http.MethodPost, "/fees/fee-1/pay", nil)
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}
	withClaims(c, "par-1", models.RoleParent)
	h.Pay(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fee-1", svc.paid)

	c, w = newGinContext(http.MethodPost, "/fees/fee-1/pay", nil)
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}
	withClaims(c, "stu-1", models.RoleStudent)
	h.Pay(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFeeHandlerListIncludesEffectiveStatus(t *testing.T) {
	h := NewFeeHandler(&fakeFeeService{})
	c, w := newGinContext(http.MethodGet, "/fees", nil)
	withClaims(c, "adm-1", models.RoleSchoolAdmin)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"effective_status":"overdue"`)
}

func TestAnnouncementHandlerCreateAndDelete(t *testing.T) {
	svc := &fakeAnnouncementService{}
	h := NewAnnouncementHandler(svc)

	c, w := newGinContext(http.MethodPost, "/announcements", map[string]interface{}{
		"title": "Exam", "content": "Friday", "targetRoles": []string{"student", "parent"},
	})
	withClaims(c, "adm-1", models.RoleSchoolAdmin)
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []models.UserRole{models.RoleStudent, models.RoleParent}, svc.req.TargetRoles)

	c, w = newGinContext(http.MethodDelete, "/announcements/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	withClaims(c, "adm-1", models.RoleSchoolAdmin)
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaterialHandlerListAndCreate(t *testing.T) {
	h := NewMaterialHandler(fakeMaterialService{})

	c, w := newGinContext(http.MethodGet, "/materials", nil)
	withClaims(c, "stu-1", models.RoleStudent)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "mat-2")

	c, w = newGinContext(http.MethodPost, "/materials", map[string]interface{}{"title": "Notes"})
	withClaims(c, "tch-1", models.RoleTeacher)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPost, "/materials", nil)
	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
