package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/config"
)

const testSecret = "test-jwt-secret-that-is-32-chars!!"

func newTestService(t *testing.T) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 12345)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), claims.UserID)
	assert.Equal(t, "12345", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(60*time.Minute), claims.ExpiresAt, time.Minute)
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	issued := time.Now().Add(-3 * time.Hour)
	svc.timeFunc = func() time.Time { return issued }
	token, err := svc.GenerateToken(ctx, 12345)
	require.NoError(t, err)

	// Validation happens "now", well past expiry plus clock skew.
	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWithinClockSkew(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	// Token expired one minute ago; the two-minute skew allowance should
	// still accept it.
	issued := time.Now().Add(-61 * time.Minute)
	svc.timeFunc = func() time.Time { return issued }
	token, err := svc.GenerateToken(ctx, 12345)
	require.NoError(t, err)

	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(ctx, token)
	require.NoError(t, err)
}

func TestValidateTokenTamperedSignature(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 12345)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	_, err = svc.ValidateToken(ctx, tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	other, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "another-secret-that-is-32-chars!!!!!",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	ctx := context.Background()
	token, err := other.GenerateToken(ctx, 12345)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken(ctx, "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenRegistry(t *testing.T) {
	t.Parallel()

	r := NewTokenRegistry()

	_, err := r.Get(7)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	r.Set(7, "gho_token_a")
	token, err := r.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "gho_token_a", token)

	r.Set(7, "gho_token_b")
	token, err = r.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "gho_token_b", token, "later logins replace the stored token")

	r.Delete(7)
	_, err = r.Get(7)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}
