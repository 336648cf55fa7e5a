// Package refreshtokens keeps the current refresh token of each account in a
// key-value store. One account has at most one live refresh session; a newer
// token replaces the older one.
package refreshtokens

import (
	"context"
	"time"
)

type Store interface {
	// Put stores token for accountID with the given lifetime, replacing any
	// previous token.
	Put(ctx context.Context, accountID, token string, ttl time.Duration) error

	// Get returns the live token for accountID or common.ErrNotFound.
	Get(ctx context.Context, accountID string) (string, error)

	// Invalidate removes the token for accountID. Missing tokens are not an error.
	Invalidate(ctx context.Context, accountID string) error
}
