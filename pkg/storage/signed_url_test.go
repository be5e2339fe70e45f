package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "reports/file.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	parsed, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", parsed.JobID)
	require.Equal(t, "reports/file.csv", parsed.Path)
	require.WithinDuration(t, expiresAt, parsed.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("job-1", "reports/file.csv")
	require.NoError(t, err)
	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	parsed, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", parsed.JobID)
	require.Equal(t, "reports/file.csv", parsed.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "reports/file.csv")
	require.NoError(t, err)

	forged, _, err := NewSignedURLSigner("secret", time.Hour).Generate("job-2", "reports/other.csv")
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	parts[1] = strings.Split(forged, ".")[1]
	_, err = signer.Parse(strings.Join(parts, "."), false)
	require.ErrorIs(t, err, ErrInvalidToken, "payload swapped under the original signature")

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("not-a-token", false)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRejectsOtherAlgorithms(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, downloadClaims{
		Path: "reports/file.csv",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "job-1",
			Audience:  jwt.ClaimStrings{downloadAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = signer.Parse(unsigned, false)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = signer.Parse(unsigned, true)
	require.ErrorIs(t, err, ErrInvalidToken)
}
