package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTTL is the lifetime of an issued bearer token.
	TokenTTL = 7 * 24 * time.Hour

	// MinSigningKeyBytes is the shortest accepted HS256 secret.
	MinSigningKeyBytes = 32
)

// TokenIssuer signs bearer tokens whose only claim of substance is the
// subject user id. Tokens are stateless and expire after TokenTTL.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer returns an issuer for the given HS256 secret.
// A secret shorter than MinSigningKeyBytes is rejected with ErrSigningKeyMissing.
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) < MinSigningKeyBytes {
		return nil, newError(KindSigningKeyMissing, "secret is %d bytes, need at least %d", len(secret), MinSigningKeyBytes)
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenIssuer{secret: key}, nil
}

// Issue signs a token for subject, valid from now until now+TokenTTL.
func (i *TokenIssuer) Issue(subject int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subject, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token against secret and returns the
// subject user id. Only HS256 is accepted; expiry is enforced.
func ParseToken(tokenString string, secret []byte) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return 0, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return 0, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrTokenInvalid)
	}

	return id, nil
}
