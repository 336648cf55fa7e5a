package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
)

type nopLogger = logging.Nop

type fakeSessions struct {
	session *models.Session
	err     error

	gotRegister services.RegisterInput
	gotLogin    services.LoginInput
	gotToken    string
	gotDeleteID string
}

func (f *fakeSessions) Register(ctx context.Context, in services.RegisterInput) (*models.Session, error) {
	f.gotRegister = in
	return f.session, f.err
}

func (f *fakeSessions) Login(ctx context.Context, in services.LoginInput) (*models.Session, error) {
	f.gotLogin = in
	return f.session, f.err
}

func (f *fakeSessions) RefreshToken(ctx context.Context, token string) (*models.Session, error) {
	f.gotToken = token
	return f.session, f.err
}

func (f *fakeSessions) Logout(ctx context.Context, token string) error {
	f.gotToken = token
	return f.err
}

func (f *fakeSessions) DeleteUser(ctx context.Context, id string) error {
	f.gotDeleteID = id
	return f.err
}

// fakeVerifier accepts "good" and reports "old" as expired.
type fakeVerifier struct{}

func (fakeVerifier) ParseAccess(token string) (*auth.AccessClaims, error) {
	switch token {
	case "good":
		return &auth.AccessClaims{Username: "alice1", Role: "USER", RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-1"}}, nil
	case "old":
		return nil, common.ErrTokenExpired
	}
	return nil, common.ErrInvalidToken
}

func testSession() *models.Session {
	return &models.Session{
		AccountID: "acc-1",
		Email:     "a@x.com",
		Username:  "alice1",
		Role:      "USER",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Tokens:    models.TokenPair{AccessToken: "at", RefreshToken: "rt"},
	}
}

func newTestServer(f *fakeSessions) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, f, fakeVerifier{})
}
