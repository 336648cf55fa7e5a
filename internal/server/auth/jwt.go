package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the payload of an access token. Subject holds the account id.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Subject holds the account id.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

var now = time.Now

func registered(subject, issuer string, ttl time.Duration) jwt.RegisteredClaims {
	t := now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(t),
		ExpiresAt: jwt.NewNumericDate(t.Add(ttl)),
	}
}

// SignAccessToken signs an access token with the key set's asymmetric key.
func SignAccessToken(keys *KeySet, issuer string, claims AccessClaims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = registered(claims.Subject, issuer, ttl)
	token := jwt.NewWithClaims(keys.accessMethod, claims)
	s, err := token.SignedString(keys.accessPrivate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSigningUnavailable, err)
	}
	return s, nil
}

// SignRefreshToken signs a refresh token with HS256 and the shared secret.
func SignRefreshToken(keys *KeySet, issuer, subject string, ttl time.Duration) (string, error) {
	claims := RefreshClaims{RegisteredClaims: registered(subject, issuer, ttl)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(keys.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSigningUnavailable, err)
	}
	return s, nil
}

// ParseAccessToken verifies an access token and returns its claims.
func ParseAccessToken(keys *KeySet, issuer, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return keys.accessPublic, nil
	}, parserOptions(keys.accessMethod.Alg(), issuer)...)
	if err != nil {
		return nil, tokenError(err)
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func ParseRefreshToken(keys *KeySet, issuer, tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return keys.refreshSecret, nil
	}, parserOptions(jwt.SigningMethodHS256.Alg(), issuer)...)
	if err != nil {
		return nil, tokenError(err)
	}
	return claims, nil
}

func parserOptions(alg, issuer string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now() }),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return opts
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
}
