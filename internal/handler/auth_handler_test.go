package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

type fakeAuthService struct {
	changed bool
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret123" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email}}, nil
}

func (f *fakeAuthService) ChangePassword(context.Context, *models.JWTClaims, models.ChangePasswordRequest) error {
	f.changed = true
	return nil
}

type fakeUserService struct {
	signup   dto.SignupRequest
	register dto.RegisterSchoolRequest
}

func (f *fakeUserService) Signup(_ context.Context, req dto.SignupRequest) (*models.User, error) {
	f.signup = req
	return &models.User{ID: "stu-new", Role: req.Role}, nil
}

func (f *fakeUserService) Me(_ context.Context, claims *models.JWTClaims) (*models.User, error) {
	return &models.User{ID: claims.UserID, Name: "Ani"}, nil
}

func (f *fakeUserService) RegisterSchool(_ context.Context, req dto.RegisterSchoolRequest) (*dto.RegisterSchoolResponse, error) {
	f.register = req
	return &dto.RegisterSchoolResponse{School: models.School{ID: "sch-1", RegistrationCode: "ABC234"}}, nil
}

func (f *fakeUserService) Create(_ context.Context, _ *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error) {
	if req.Email == "taken@school.id" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return &models.User{ID: "usr-1", Email: req.Email}, nil
}

func (f *fakeUserService) Students(context.Context, *models.JWTClaims) ([]models.User, error) {
	return []models.User{{ID: "stu-1"}, {ID: "stu-2"}}, nil
}

func (f *fakeUserService) Teachers(context.Context, *models.JWTClaims) ([]models.User, error) {
	return []models.User{{ID: "tch-1"}}, nil
}

func (f *fakeUserService) Schools(context.Context, *models.JWTClaims) ([]models.School, error) {
	return []models.School{{ID: "sch-1"}}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, &fakeUserService{})

	c, w := newGinContext(http.MethodPost, "/auth/login", models.LoginRequest{Email: "ani@school.id", Password: "secret123"})
	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"access_token":"token"`)

	c, w = newGinContext(http.MethodPost, "/auth/login", models.LoginRequest{Email: "ani@school.id", Password: "wrong"})
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerSignupAndMe(t *testing.T) {
	users := &fakeUserService{}
	h := NewAuthHandler(&fakeAuthService{}, users)

	c, w := newGinContext(http.MethodPost, "/auth/signup", map[string]interface{}{
		"registrationCode": "ABC234", "name": "Ani", "email": "ani@school.id", "password": "secret123", "role": "student", "classLevel": 8,
	})
	h.Signup(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ABC234", users.signup.RegistrationCode)
	assert.Equal(t, models.RoleStudent, users.signup.Role)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	withClaims(c, "stu-1", models.RoleStudent)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"stu-1"`)
}

func TestAuthHandlerChangePassword(t *testing.T) {
	auth := &fakeAuthService{}
	h := NewAuthHandler(auth, &fakeUserService{})

	c, w := newGinContext(http.MethodPost, "/auth/change-password", models.ChangePasswordRequest{OldPassword: "a", NewPassword: "secret1234"})
	h.ChangePassword(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, auth.changed)

	c, w = newGinContext(http.MethodPost, "/auth/change-password", models.ChangePasswordRequest{OldPassword: "a", NewPassword: "secret1234"})
	withClaims(c, "stu-1", models.RoleStudent)
	h.ChangePassword(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, auth.changed)
}

func TestUserHandlerEndpoints(t *testing.T) {
	users := &fakeUserService{}
	h := NewUserHandler(users)

	c, w := newGinContext(http.MethodPost, "/schools/register", map[string]string{"schoolName": "Harapan", "adminName": "Admin", "adminEmail": "a@b.id", "adminPassword": "secret123"})
	h.RegisterSchool(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Harapan", users.register.SchoolName)

	c, w = newGinContext(http.MethodPost, "/users", map[string]string{"email": "taken@school.id"})
	withClaims(c, "adm-1", models.RoleSchoolAdmin)
	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = newGinContext(http.MethodGet, "/users/students", nil)
	withClaims(c, "tch-1", models.RoleTeacher)
	h.Students(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w).Meta["count"])

	c, w = newGinContext(http.MethodGet, "/users/teachers", nil)
	withClaims(c, "stu-1", models.RoleStudent)
	h.Teachers(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/schools", nil)
	withClaims(c, "mgt-1", models.RoleManagement)
	h.Schools(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
