package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "test-secret"

// Token mints an HS256 access token the auth middleware accepts.
func Token(t testing.TB, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"id":        userID.String(),
		"role":      role,
		"user_name": "user-" + userID.String()[:8],
		"email":     userID.String()[:8] + "@example.ac.uk",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return signed
}

// ExpiredToken is Token with an exp well past the accepted skew.
func ExpiredToken(t testing.TB, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"id":   userID.String(),
		"role": role,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return signed
}
