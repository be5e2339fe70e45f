package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const downloadAudience = "report-download"

var (
	// ErrInvalidToken is returned for malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned for well formed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadToken is the metadata carried by a signed download token.
type DownloadToken struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

type downloadClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// SignedURLSigner issues HS256 tokens that authorise one export download
// without a session. The job id travels as the subject.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token for the file at relPath produced by jobID.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, errors.New("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	issued := s.now().Truncate(time.Second)
	expiresAt := issued.Add(s.ttl)
	claims := downloadClaims{
		Path: relPath,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   jobID,
			Audience:  jwt.ClaimStrings{downloadAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata. With
// allowExpired the expiry is not enforced, which cleanup relies on to find
// the files of stale links.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (DownloadToken, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithAudience(downloadAudience),
		jwt.WithExpirationRequired(),
	}
	if allowExpired {
		opts = []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		}
	}

	var claims downloadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return DownloadToken{}, ErrTokenExpired
	case err != nil:
		return DownloadToken{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Path == "" || claims.ExpiresAt == nil {
		return DownloadToken{}, ErrInvalidToken
	}
	return DownloadToken{
		JobID:     claims.Subject,
		Path:      claims.Path,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
