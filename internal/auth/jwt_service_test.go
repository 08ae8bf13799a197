package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskboard/internal/errors"
)

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", 0)

	token, issued, err := svc.IssueToken("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, DefaultTokenTTL, issued.ExpiresAt.Sub(issued.IssuedAt.Time))

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestJWTService_VerifyFailures(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	valid, _, err := svc.IssueToken("user-1")
	require.NoError(t, err)

	expiredSvc := NewJWTService("test-secret", time.Hour)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredSvc.IssueToken("user-1")
	require.NoError(t, err)

	otherKey, _, err := NewJWTService("other-secret", time.Hour).IssueToken("user-1")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"expired", expired, "token expired"},
		{"wrong key", otherKey, "invalid token"},
		{"none algorithm", noneAlg, "invalid token"},
		{"malformed", "not-a-jwt", "invalid token"},
		{"tampered", valid + "x", "invalid token"},
		{"empty", "", "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.VerifyToken(tt.token)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash1, err := h.Hash("password123")
	require.NoError(t, err)
	hash2, err := h.Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, "password123", hash1)
	assert.NotEqual(t, hash1, hash2, "each hash is salted")
	assert.True(t, h.Verify(hash1, "password123"))
	assert.True(t, h.Verify(hash2, "password123"))
	assert.False(t, h.Verify(hash1, "password124"))
	assert.False(t, h.Verify("", "password123"))
	assert.False(t, h.Verify("", ""))
}

func TestNewBcryptHasherDefaultCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).Cost)
}
