package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

func newAuthService(t *testing.T) (*AuthService, testEnv) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	doc := seedDocument()
	for i := range doc.Users {
		doc.Users[i].PasswordHash = string(hash)
	}
	env := newTestEnv(t, doc)
	svc := NewAuthService(env.deps(), nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "edutask-api",
		PasswordHashCost:  bcrypt.MinCost,
	})
	return svc, env
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	svc, _ := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "SARI@harapan.sch.id", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "tch-1", resp.User.ID)
	assert.Equal(t, "sch-1", resp.User.SchoolID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tch-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "sch-1", claims.SchoolID)
	assert.Equal(t, "Bu Sari", claims.FullName)
	assert.Equal(t, "edutask-api", claims.Issuer)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "sari@harapan.sch.id", Password: "wrong"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@harapan.sch.id", Password: "password123"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "password123"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, env := newAuthService(t)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ani@harapan.sch.id", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(env.deps(), nil, AuthConfig{AccessTokenSecret: "another-secret"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	user, _ := env.document(t).FindUser("stu-1")
	expired, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, claimsFor("stu-1"), models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "brand-new-pass"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))

	require.NoError(t, svc.ChangePassword(ctx, claimsFor("stu-1"), models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "brand-new-pass"}))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ani@harapan.sch.id", Password: "password123"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidCredentials.Code))
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ani@harapan.sch.id", Password: "brand-new-pass"})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "bayu@harapan.sch.id", Password: "password123"})
	assert.NoError(t, err, "other accounts keep their password")
}
