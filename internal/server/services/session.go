// Package services contains server-side business logic. SessionService
// registers accounts, verifies credentials and issues access/refresh token
// pairs whose refresh half is recorded in the refresh token store.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

const (
	OpRegister   = "register"
	OpLogin      = "login"
	OpRefresh    = "refresh"
	OpLogout     = "logout"
	OpDeleteUser = "delete_user"
)

type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hashed string) (bool, error)
	Dummy() string
}

type TokenIssuer interface {
	Issue(a *models.Account) (models.TokenPair, error)
	ParseRefresh(token string) (*auth.RefreshClaims, error)
}

// Recorder receives per-operation outcome counts.
type Recorder interface {
	SessionIssued(operation string)
	SessionFailed(operation, reason string)
}

type nopRecorder struct{}

func (nopRecorder) SessionIssued(string)         {}
func (nopRecorder) SessionFailed(string, string) {}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginInput carries the login identifier, a username or an email depending
// on the configured login mode.
type LoginInput struct {
	Login    string
	Password string
}

type Options struct {
	LoginBy  string
	StoreTTL time.Duration
}

type SessionService struct {
	accounts accounts.Repository
	hasher   Hasher
	tokens   TokenIssuer
	store    refreshtokens.Store
	metrics  Recorder
	logger   logging.Logger
	loginBy  string
	storeTTL time.Duration
}

func NewSessionService(
	accounts accounts.Repository,
	hasher Hasher,
	tokens TokenIssuer,
	store refreshtokens.Store,
	metrics Recorder,
	logger logging.Logger,
	opts Options,
) *SessionService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if opts.LoginBy == "" {
		opts.LoginBy = config.LoginByUsername
	}
	return &SessionService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		store:    store,
		metrics:  metrics,
		logger:   logger.With("module", "sessions"),
		loginBy:  opts.LoginBy,
		storeTTL: opts.StoreTTL,
	}
}

// Register creates an account and opens its first session. Validation
// failures come back as *validation.Report inside a *StageError.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	r := s.begin(OpRegister)

	r.advance(ctx, StageValidating)
	if in.Password != in.ConfirmPassword {
		return nil, r.fail(ctx, validation.PasswordMismatch())
	}

	form := validation.RegistrationForm{
		Username: models.NormalizeUsername(in.Username),
		Email:    models.NormalizeEmail(in.Email),
		Password: in.Password,
	}
	if err := validation.Registration(form); err != nil {
		return nil, r.fail(ctx, s.mapped(ctx, r, err))
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, r.fail(ctx, s.internal(ctx, r, "hash password", err))
	}

	r.advance(ctx, StagePersisting)
	account, err := s.accounts.Insert(ctx, models.AccountDraft{
		Email:        form.Email,
		Username:     form.Username,
		PasswordHash: hash,
		Role:         common.RoleUser,
	})
	if err != nil {
		return nil, r.fail(ctx, s.mapped(ctx, r, err))
	}
	r.log.Info(ctx, "account registered", "account_id", account.ID)

	return s.issue(ctx, r, account)
}

// Login verifies credentials and opens a new session, replacing any prior
// one. Unknown accounts and wrong passwords fail identically.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*models.Session, error) {
	r := s.begin(OpLogin)

	r.advance(ctx, StageValidating)
	if in.Login == "" || in.Password == "" {
		return nil, r.fail(ctx, common.ErrAuthenticationFailed)
	}

	r.advance(ctx, StageAuthenticating)
	account, err := s.findForLogin(ctx, in.Login)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, r.fail(ctx, s.internal(ctx, r, "find account", err))
		}
		if _, err := s.hasher.Verify(ctx, in.Password, s.hasher.Dummy()); err != nil {
			return nil, r.fail(ctx, s.internal(ctx, r, "verify password", err))
		}
		r.log.Debug(ctx, "unknown account")
		return nil, r.fail(ctx, common.ErrAuthenticationFailed)
	}

	ok, err := s.hasher.Verify(ctx, in.Password, account.PasswordHash)
	if err != nil {
		return nil, r.fail(ctx, s.internal(ctx, r, "verify password", err))
	}
	if !ok {
		r.log.Debug(ctx, "password mismatch", "account_id", account.ID)
		return nil, r.fail(ctx, common.ErrAuthenticationFailed)
	}

	return s.issue(ctx, r, account)
}

// RefreshToken rotates a session: the presented refresh token must be the
// one currently recorded for its account.
func (s *SessionService) RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	r := s.begin(OpRefresh)

	r.advance(ctx, StageValidating)
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, r.fail(ctx, tokenFailure(err))
	}

	r.advance(ctx, StageAuthenticating)
	if err := s.matchStored(ctx, claims.Subject, refreshToken); err != nil {
		return nil, r.fail(ctx, s.storeFailure(ctx, r, err))
	}

	account, err := s.accounts.FindByID(ctx, claims.Subject)
	if errors.Is(err, common.ErrNotFound) {
		return nil, r.fail(ctx, common.ErrInvalidToken)
	}
	if err != nil {
		return nil, r.fail(ctx, s.internal(ctx, r, "find account", err))
	}

	return s.issue(ctx, r, account)
}

// Logout ends the session the refresh token belongs to. A session that is
// already gone is not an error.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	r := s.begin(OpLogout)

	r.advance(ctx, StageValidating)
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return r.fail(ctx, tokenFailure(err))
	}

	r.advance(ctx, StageAuthenticating)
	err = s.matchStored(ctx, claims.Subject, refreshToken)
	if errors.Is(err, common.ErrNotFound) {
		r.done(ctx, false)
		return nil
	}
	if err != nil {
		return r.fail(ctx, s.storeFailure(ctx, r, err))
	}

	r.advance(ctx, StageSessionPersisted)
	if err := s.store.Invalidate(ctx, claims.Subject); err != nil {
		return r.fail(ctx, s.storeFailure(ctx, r, err))
	}

	r.done(ctx, false)
	return nil
}

// DeleteUser removes an account and drops its refresh session.
func (s *SessionService) DeleteUser(ctx context.Context, id string) error {
	r := s.begin(OpDeleteUser)

	r.advance(ctx, StagePersisting)
	if err := s.accounts.Remove(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return r.fail(ctx, common.ErrNotFound)
		}
		return r.fail(ctx, s.internal(ctx, r, "remove account", err))
	}
	r.log.Info(ctx, "account removed", "account_id", id)

	r.advance(ctx, StageSessionPersisted)
	if err := s.store.Invalidate(ctx, id); err != nil {
		// the account is gone, so a leftover token can no longer be refreshed
		r.log.Warn(ctx, "refresh session not invalidated", "account_id", id, "error", err)
	}

	r.done(ctx, false)
	return nil
}

func (s *SessionService) issue(ctx context.Context, r *request, account *models.Account) (*models.Session, error) {
	r.advance(ctx, StageTokenIssuance)
	tokens, err := s.tokens.Issue(account)
	if err != nil {
		r.log.Error(ctx, "token issuance failed", "account_id", account.ID, "error", err)
		return nil, r.fail(ctx, common.ErrSigningUnavailable)
	}

	if err := s.store.Put(ctx, account.ID, tokens.RefreshToken, s.storeTTL); err != nil {
		r.log.Error(ctx, "refresh session not recorded", "account_id", account.ID, "error", err)
		return nil, r.fail(ctx, common.ErrSessionStoreUnavailable)
	}
	r.advance(ctx, StageSessionPersisted)

	r.done(ctx, true)
	return models.NewSession(account, tokens), nil
}

func (s *SessionService) findForLogin(ctx context.Context, login string) (*models.Account, error) {
	if s.loginBy == config.LoginByEmail {
		return s.accounts.FindByEmail(ctx, login)
	}
	return s.accounts.FindByUsername(ctx, login)
}

// matchStored compares token with the one recorded for accountID in constant
// time. A missing record yields common.ErrNotFound.
func (s *SessionService) matchStored(ctx context.Context, accountID, token string) error {
	stored, err := s.store.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return common.ErrInvalidToken
	}
	return nil
}

// mapped turns validation-class failures into a report. Anything else is an
// infrastructure fault and is not shown to the caller.
func (s *SessionService) mapped(ctx context.Context, r *request, err error) error {
	if validation.IsMappable(err) {
		return validation.MapError(err)
	}
	return s.internal(ctx, r, "persist account", err)
}

func (s *SessionService) internal(ctx context.Context, r *request, what string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.log.Error(ctx, what, "error", err)
	return common.ErrInternal
}

func (s *SessionService) storeFailure(ctx context.Context, r *request, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidToken):
		return common.ErrInvalidToken
	case errors.Is(err, common.ErrSessionStoreUnavailable):
		r.log.Error(ctx, "refresh store", "error", err)
		return common.ErrSessionStoreUnavailable
	}
	return s.internal(ctx, r, "refresh store", err)
}

func tokenFailure(err error) error {
	if errors.Is(err, common.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	return common.ErrInvalidToken
}
