package models

import "time"

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is the successful outcome of register, login and refresh: the
// account's public fields plus a freshly issued token pair.
type Session struct {
	AccountID string
	Email     string
	Username  string
	Role      string
	CreatedAt time.Time
	Tokens    TokenPair
}

// NewSession builds a Session from an account without carrying its hash.
func NewSession(a *Account, tokens TokenPair) *Session {
	return &Session{
		AccountID: a.ID,
		Email:     a.Email,
		Username:  a.Username,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		Tokens:    tokens,
	}
}
