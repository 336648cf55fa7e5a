package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Signer issues token pairs for accounts.
type Signer struct {
	keys       *KeySet
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSigner(keys *KeySet, issuer string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	if keys == nil {
		return nil, errors.New("nil key set")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Signer{keys: keys, issuer: issuer, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// Issue signs an access token carrying the account's identity and role, and a
// refresh token bound to the account id.
func (s *Signer) Issue(a *models.Account) (models.TokenPair, error) {
	access, err := SignAccessToken(s.keys, s.issuer, AccessClaims{
		Email:            a.Email,
		Username:         a.Username,
		Role:             string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID},
	}, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := SignRefreshToken(s.keys, s.issuer, a.ID, s.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Signer) ParseAccess(token string) (*AccessClaims, error) {
	return ParseAccessToken(s.keys, s.issuer, token)
}

func (s *Signer) ParseRefresh(token string) (*RefreshClaims, error) {
	return ParseRefreshToken(s.keys, s.issuer, token)
}

// RefreshTTL is the lifetime of refresh tokens issued by s.
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }
