package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// KeySet is the process-wide, immutable signing material: an asymmetric key
// pair for access tokens and a shared secret for refresh tokens. It is built
// once at start-up and passed by pointer to everything that signs or verifies.
type KeySet struct {
	accessMethod  jwt.SigningMethod
	accessPrivate crypto.Signer
	accessPublic  crypto.PublicKey
	refreshSecret []byte
}

// NewKeySet parses PEM key material. publicPEM may be empty, in which case the
// public key is derived from the private one. Any failure is reported as
// common.ErrSigningUnavailable.
func NewKeySet(privatePEM, publicPEM, refreshSecret []byte) (*KeySet, error) {
	if len(refreshSecret) == 0 {
		return nil, fmt.Errorf("%w: empty refresh secret", common.ErrSigningUnavailable)
	}

	private, method, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigningUnavailable, err)
	}

	public := private.Public()
	if len(publicPEM) > 0 {
		public, err = parsePublicKey(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrSigningUnavailable, err)
		}
		if !samePublicKey(private.Public(), public) {
			return nil, fmt.Errorf("%w: public key does not match private key", common.ErrSigningUnavailable)
		}
	}

	secret := make([]byte, len(refreshSecret))
	copy(secret, refreshSecret)

	return &KeySet{
		accessMethod:  method,
		accessPrivate: private,
		accessPublic:  public,
		refreshSecret: secret,
	}, nil
}

// AccessAlgorithm is the JWS "alg" used for access tokens.
func (k *KeySet) AccessAlgorithm() string { return k.accessMethod.Alg() }

// PublicKey is the access token verification key.
func (k *KeySet) PublicKey() crypto.PublicKey { return k.accessPublic }

func parsePrivateKey(b []byte) (crypto.Signer, jwt.SigningMethod, error) {
	if len(b) == 0 {
		return nil, nil, errors.New("empty private key")
	}
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(b); err == nil {
		return k, jwt.SigningMethodRS256, nil
	}
	if k, err := jwt.ParseEdPrivateKeyFromPEM(b); err == nil {
		if ed, ok := k.(ed25519.PrivateKey); ok {
			return ed, jwt.SigningMethodEdDSA, nil
		}
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(b); err == nil && k.Curve.Params().BitSize == 256 {
		return k, jwt.SigningMethodES256, nil
	}
	return nil, nil, errors.New("unsupported private key: want RSA, Ed25519 or P-256 PEM")
}

func parsePublicKey(b []byte) (crypto.PublicKey, error) {
	if k, err := jwt.ParseRSAPublicKeyFromPEM(b); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPublicKeyFromPEM(b); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(b); err == nil {
		return k, nil
	}
	return nil, errors.New("unsupported public key")
}

func samePublicKey(a, b crypto.PublicKey) bool {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	switch k := a.(type) {
	case *rsa.PublicKey, ed25519.PublicKey, *ecdsa.PublicKey:
		e, ok := k.(equaler)
		return ok && e.Equal(b)
	}
	return false
}
