package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	for _, secret := range [][]byte{nil, {}, []byte("too-short"), testSigningKey[:31]} {
		issuer, err := NewTokenIssuer(secret)
		assert.Nil(t, issuer)
		assert.ErrorIs(t, err, ErrSigningKeyMissing)
	}
}

func TestTokenIssuer_IssueClaims(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	signed, err := issuer.Issue(42, now)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(signed, claims, func(_ *jwt.Token) (any, error) {
		return testSigningKey, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "HS256", token.Method.Alg())
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.IssuedAt.Time.Equal(now))
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(7*24*time.Hour)))
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_DistinctTokens(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey)
	require.NoError(t, err)

	now := time.Now()
	a, err := issuer.Issue(1, now)
	require.NoError(t, err)
	b, err := issuer.Issue(1, now)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "jti should make tokens distinct")
}

func TestTokenIssuer_SecretIsCopied(t *testing.T) {
	secret := append([]byte(nil), testSigningKey...)
	issuer, err := NewTokenIssuer(secret)
	require.NoError(t, err)

	secret[0] = 'X'
	signed, err := issuer.Issue(5, time.Now())
	require.NoError(t, err)

	id, err := ParseToken(signed, testSigningKey)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestParseToken(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey)
	require.NoError(t, err)

	valid, err := issuer.Issue(7, time.Now())
	require.NoError(t, err)
	expired, err := issuer.Issue(7, time.Now().Add(-8*24*time.Hour))
	require.NoError(t, err)

	otherIssuer, err := NewTokenIssuer([]byte("another-signing-key-of-32-bytes!"))
	require.NoError(t, err)
	foreign, err := otherIssuer.Issue(7, time.Now())
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	nonNumeric, err := badSubject.SignedString(testSigningKey)
	require.NoError(t, err)

	id, err := ParseToken(valid, testSigningKey)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for name, tok := range map[string]string{
		"expired":     expired,
		"foreign key": foreign,
		"alg none":    unsigned,
		"non-numeric": nonNumeric,
		"garbage":     "not.a.jwt",
	} {
		_, err := ParseToken(tok, testSigningKey)
		assert.True(t, errors.Is(err, ErrTokenInvalid), "%s: error = %v", name, err)
	}
}
