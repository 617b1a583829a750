package privy_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/forgeworks/go-access/provider/privy"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func testValidator(t *testing.T) (*privy.TokenValidator, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	cfg := privy.DefaultConfig("app-123", "secret-456")
	validator := privy.NewTokenValidatorWithKeyfunc(cfg, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	})
	return validator, key
}

func TestTokenValidatorAcceptsValidToken(t *testing.T) {
	validator, key := testValidator(t)

	signed := signToken(t, key, privy.Claims{
		SessionID: "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "did:privy:abc",
			Issuer:    privy.DefaultIssuer,
			Audience:  jwt.ClaimStrings{"app-123"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := validator.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "did:privy:abc", claims.UserID())
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestTokenValidatorRejectsExpiredToken(t *testing.T) {
	validator, key := testValidator(t)

	signed := signToken(t, key, privy.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "did:privy:abc",
			Issuer:    privy.DefaultIssuer,
			Audience:  jwt.ClaimStrings{"app-123"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := validator.Validate(signed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenValidatorRejectsWrongAudience(t *testing.T) {
	validator, key := testValidator(t)

	signed := signToken(t, key, privy.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "did:privy:abc",
			Issuer:    privy.DefaultIssuer,
			Audience:  jwt.ClaimStrings{"another-app"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := validator.Validate(signed)
	require.Error(t, err)
}

func TestTokenValidatorRejectsWrongIssuer(t *testing.T) {
	validator, key := testValidator(t)

	signed := signToken(t, key, privy.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "did:privy:abc",
			Issuer:    "evil.example",
			Audience:  jwt.ClaimStrings{"app-123"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := validator.Validate(signed)
	require.Error(t, err)
}

func TestTokenValidatorRejectsWrongAlgorithm(t *testing.T) {
	validator, _ := testValidator(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, privy.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "did:privy:abc",
			Issuer:   privy.DefaultIssuer,
			Audience: jwt.ClaimStrings{"app-123"},
		},
	})
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = validator.Validate(signed)
	require.Error(t, err)
}

func TestTokenValidatorGarbage(t *testing.T) {
	validator, _ := testValidator(t)

	_, err := validator.Validate("not-a-token")
	require.Error(t, err)
}
