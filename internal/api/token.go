package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid indicates a bearer token failed signature or claims
// validation.
var ErrTokenInvalid = errors.New("invalid token")

// defaultTokenTTL applies when the configured TTL is zero or negative.
const defaultTokenTTL = 15 * time.Minute

// tokenSubject identifies locally-minted API tokens. The daemon is
// single-operator, so there is no per-user identity to carry.
const tokenSubject = "local"

// apiClaims are the claims carried by locally-minted bearer tokens.
type apiClaims struct {
	jwt.RegisteredClaims
}

// IssueToken mints a signed bearer token for the local API.
//
// Tokens are HS256-signed with the configured secret and carry only
// standard claims. They are validated by signature and expiry alone,
// with no server-side session state.
func IssueToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("issuing token: secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	claims := apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// parseToken validates a bearer token's signature and expiry.
func parseToken(tokenString, secret string) (*apiClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &apiClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*apiClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}
