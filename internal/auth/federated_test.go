package auth

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
)

const (
	testIssuer   = "https://id.example.com"
	testAudience = "election-app"
)

func newProviderKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims idTokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validIDClaims() idTokenClaims {
	return idTokenClaims{
		Email: "fed@example.com",
		Name:  "Fed User",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "subject-123",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestFederatedVerify(t *testing.T) {
	key, pubPEM := newProviderKey(t)
	v, err := NewFederatedVerifier(pubPEM, testIssuer, testAudience)
	require.NoError(t, err)
	require.True(t, v.Enabled())

	id, err := v.Verify(signIDToken(t, key, validIDClaims()))
	require.NoError(t, err)
	assert.Equal(t, "subject-123", id.Subject)
	assert.Equal(t, "fed@example.com", id.Email)
	assert.Equal(t, "Fed User", id.Name)
}

func TestFederatedVerifyRejects(t *testing.T) {
	key, pubPEM := newProviderKey(t)
	otherKey, _ := newProviderKey(t)
	v, err := NewFederatedVerifier(pubPEM, testIssuer, testAudience)
	require.NoError(t, err)
	unverified := false

	tests := []struct {
		name   string
		key    *rsa.PrivateKey
		mutate func(*idTokenClaims)
	}{
		{"wrong key", otherKey, func(*idTokenClaims) {}},
		{"wrong issuer", key, func(c *idTokenClaims) { c.Issuer = "https://evil.example.com" }},
		{"wrong audience", key, func(c *idTokenClaims) { c.Audience = jwt.ClaimStrings{"other"} }},
		{"expired", key, func(c *idTokenClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }},
		{"no expiry", key, func(c *idTokenClaims) { c.ExpiresAt = nil }},
		{"no email", key, func(c *idTokenClaims) { c.Email = "" }},
		{"unverified email", key, func(c *idTokenClaims) { c.EmailVerified = &unverified }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validIDClaims()
			tt.mutate(&claims)
			_, err := v.Verify(signIDToken(t, tt.key, claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestFederatedDisabled(t *testing.T) {
	v, err := NewFederatedVerifier("", testIssuer, "")
	require.NoError(t, err)
	assert.False(t, v.Enabled())
	_, err = v.Verify("anything")
	assert.ErrorIs(t, err, ErrFederatedDisabled)

	_, err = NewFederatedVerifier("not a pem", testIssuer, "")
	assert.Error(t, err)
}
