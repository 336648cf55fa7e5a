package client

import (
	"context"
	"time"
)

// Account is what the server reports about the caller after register or login.
type Account struct {
	ID        string
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
}

// Tokens is the pair held by a signed-in client.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type Client interface {
	Close() error
	Register(ctx context.Context, in RegisterInput) (*Account, error)
	Login(ctx context.Context, login, password string) (*Account, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	DeleteUser(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Tokens() Tokens
	SetTokens(t Tokens)
}
