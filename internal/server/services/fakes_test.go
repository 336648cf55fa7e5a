package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

// fakeAccounts behaves like the persistence schema: it normalizes and
// validates drafts and enforces unique email and username.
type fakeAccounts struct {
	mu      sync.Mutex
	byID    map[string]*models.Account
	inserts int

	insertErr error
	findErr   error
	removeErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[string]*models.Account{}}
}

func (f *fakeAccounts) Insert(ctx context.Context, d models.AccountDraft) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	d.Normalize()
	if err := validation.Draft(&d); err != nil {
		return nil, err
	}
	for _, a := range f.byID {
		if a.Email == d.Email {
			return nil, &common.DuplicateKeyError{Field: "email", Value: d.Email}
		}
		if a.Username == d.Username {
			return nil, &common.DuplicateKeyError{Field: "username", Value: d.Username}
		}
	}

	now := time.Now()
	a := &models.Account{
		ID: uuid.NewString(), Email: d.Email, Username: d.Username,
		PasswordHash: d.PasswordHash, Role: d.Role, CreatedAt: now, UpdatedAt: now,
	}
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeAccounts) find(match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.byID {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccounts) FindByUsername(ctx context.Context, u string) (*models.Account, error) {
	u = models.NormalizeUsername(u)
	return f.find(func(a *models.Account) bool { return a.Username == u })
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, e string) (*models.Account, error) {
	e = models.NormalizeEmail(e)
	return f.find(func(a *models.Account) bool { return a.Email == e })
}

func (f *fakeAccounts) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeStore struct {
	mu     sync.Mutex
	tokens map[string]string
	ttls   map[string]time.Duration
	puts   int

	putErr error
	getErr error
	invErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Put(ctx context.Context, id, token string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.tokens[id] = token
	f.ttls[id] = ttl
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	t, ok := f.tokens[id]
	if !ok {
		return "", common.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) Invalidate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invErr != nil {
		return f.invErr
	}
	delete(f.tokens, id)
	delete(f.ttls, id)
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	issued   map[string]int
	failures map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{issued: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeRecorder) SessionIssued(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued[op]++
}

func (f *fakeRecorder) SessionFailed(op, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+"/"+reason]++
}

// brokenIssuer fails every signing call.
type brokenIssuer struct{ TokenIssuer }

func (brokenIssuer) Issue(*models.Account) (models.TokenPair, error) {
	return models.TokenPair{}, common.ErrSigningUnavailable
}

type fixture struct {
	svc      *SessionService
	accounts *fakeAccounts
	store    *fakeStore
	signer   *auth.Signer
	hasher   *password.Hasher
	rec      *fakeRecorder
}

const storeTTL = 48 * time.Hour

func newSigner(t *testing.T) *auth.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keys, err := auth.NewKeySet(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil, []byte("refresh-secret"))
	if err != nil {
		t.Fatalf("NewKeySet: %v", err)
	}
	s, err := auth.NewSigner(keys, "gophauth", 15*time.Minute, storeTTL)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func newFixture(t *testing.T, loginBy string) *fixture {
	t.Helper()
	h, err := password.NewHasher(bcrypt.MinCost, 4)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	f := &fixture{
		accounts: newFakeAccounts(),
		store:    newFakeStore(),
		signer:   newSigner(t),
		hasher:   h,
		rec:      newFakeRecorder(),
	}
	f.svc = NewSessionService(f.accounts, f.hasher, f.signer, f.store, f.rec, logging.Nop{},
		Options{LoginBy: loginBy, StoreTTL: storeTTL})
	return f
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:        "alice1",
		Email:           "a@x.com",
		Password:        "longpassword1",
		ConfirmPassword: "longpassword1",
	}
}
