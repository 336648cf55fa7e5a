package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeys(t *testing.T) (privPath, pubPath string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath = filepath.Join(dir, "access.pem")
	pubPath = filepath.Join(dir, "access.pub.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600))
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644))
	return privPath, pubPath
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestLoadKeySet_FromFiles(t *testing.T) {
	c := testConfig()
	c.AccessPrivateKey, c.AccessPublicKey = writeKeys(t)

	ks, err := loadKeySet(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "EdDSA", ks.AccessAlgorithm())
}

func TestLoadKeySet_UnsetPublicKeyIsDerived(t *testing.T) {
	c := testConfig()
	c.AccessPrivateKey, _ = writeKeys(t)
	c.AccessPublicKey = ""

	ks, err := loadKeySet(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, ks.PublicKey())
}

func TestLoadKeySet_MissingConfiguredPublicKeyIsFatal(t *testing.T) {
	c := testConfig()
	c.AccessPrivateKey, _ = writeKeys(t)
	c.AccessPublicKey = filepath.Join(t.TempDir(), "absent.pem")

	_, err := loadKeySet(context.Background(), c)
	require.ErrorIs(t, err, common.ErrSigningUnavailable)
	assert.Contains(t, err.Error(), "public key")
}

func TestLoadKeySet_MissingPrivateKeyIsFatal(t *testing.T) {
	c := testConfig()
	c.AccessPrivateKey = filepath.Join(t.TempDir(), "absent.pem")

	_, err := loadKeySet(context.Background(), c)
	require.ErrorIs(t, err, common.ErrSigningUnavailable)
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := testConfig()
	c.AccessTokenTTL = 0

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token ttl must be positive")
}

func TestNewApp_SigningUnavailable(t *testing.T) {
	c := testConfig()
	c.AccessPrivateKey = filepath.Join(t.TempDir(), "absent.pem")

	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrSigningUnavailable)
}

func TestApp_CloseRunsClosersInReverse(t *testing.T) {
	var order []int
	app := &App{logger: nopLogger()}
	app.closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}

	app.Close()
	assert.Equal(t, []int{2, 1}, order)
	assert.Nil(t, app.closers)
}

func nopLogger() logging.Logger { return logging.Nop{} }
