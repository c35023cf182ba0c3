package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/api/middleware"
)

const callerAddr = "0x1111111111111111111111111111111111111111"

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemBytes)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticateMissingHeader(t *testing.T) {
	result := middleware.Authenticate("", middleware.AuthConfig{})

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	result := middleware.Authenticate("Bearer", middleware.AuthConfig{})

	assert.False(t, result.Success)
}

func TestAuthenticateUnsupportedScheme(t *testing.T) {
	result := middleware.Authenticate("Basic dXNlcjpwYXNz", middleware.AuthConfig{})

	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Error, "unsupported")
}

func TestAuthenticateAPIKey(t *testing.T) {
	cfg := middleware.AuthConfig{APIKeys: []string{"key-1", "key-2"}}

	result := middleware.Authenticate("APIKey key-2", cfg)
	require.True(t, result.Success)
	assert.Equal(t, "apikey", result.AuthType)
	assert.Empty(t, result.AuthSubject)

	result = middleware.Authenticate("APIKey wrong", cfg)
	assert.False(t, result.Success)
}

func TestAuthenticateAPIKeyNoneConfigured(t *testing.T) {
	result := middleware.Authenticate("APIKey anything", middleware.AuthConfig{})

	assert.False(t, result.Success)
}

func TestAuthenticateJWTSubjectCarriesCaller(t *testing.T) {
	key, publicPEM := generateKeyPair(t)
	cfg := middleware.AuthConfig{JWTPublicKey: publicPEM}

	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   callerAddr,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	result := middleware.Authenticate("Bearer "+token, cfg)
	require.True(t, result.Success)
	assert.Equal(t, "jwt", result.AuthType)
	assert.Equal(t, callerAddr, result.AuthSubject)
}

func TestAuthenticateJWTExpired(t *testing.T) {
	key, publicPEM := generateKeyPair(t)
	cfg := middleware.AuthConfig{JWTPublicKey: publicPEM}

	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   callerAddr,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	result := middleware.Authenticate("Bearer "+token, cfg)
	assert.False(t, result.Success)
}

func TestAuthenticateJWTWrongKey(t *testing.T) {
	key, _ := generateKeyPair(t)
	_, otherPublicPEM := generateKeyPair(t)
	cfg := middleware.AuthConfig{JWTPublicKey: otherPublicPEM}

	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   callerAddr,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	result := middleware.Authenticate("Bearer "+token, cfg)
	assert.False(t, result.Success)
}

func TestAuthenticateJWTNoPublicKeyConfigured(t *testing.T) {
	key, _ := generateKeyPair(t)

	token := signToken(t, key, jwt.RegisteredClaims{Subject: callerAddr})

	result := middleware.Authenticate("Bearer "+token, middleware.AuthConfig{})
	assert.False(t, result.Success)
}
