package apiauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret-0123456789")

func TestIssueAndVerify(t *testing.T) {
	token, err := IssueToken(secret, "popup", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := NewVerifier(secret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "popup", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestIssueToken_NoSecret(t *testing.T) {
	_, err := IssueToken(nil, "cli", time.Hour, time.Now())
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestVerify_Rejects(t *testing.T) {
	expired, err := IssueToken(secret, "cli", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	wrongSecret, err := IssueToken([]byte("other-secret"), "cli", time.Hour, time.Now())
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer}).SignedString(secret)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no expiry":    noExpiry,
		"wrong issuer": wrongIssuer,
		"garbage":      "not.a.token",
	}

	v := NewVerifier(secret)
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.Error(t, err)
		})
	}
}
