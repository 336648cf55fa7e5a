// Package password hashes and verifies account passwords with bcrypt. The
// number of concurrent bcrypt operations is bounded; waiting for a slot
// honours context cancellation.
package password

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the work factor used when none is configured.
const DefaultCost = 10

type Hasher struct {
	cost  int
	slots *semaphore.Weighted
	dummy string

	observe func(time.Duration)
}

// NewHasher builds a Hasher with the given bcrypt cost and at most
// maxConcurrent simultaneous hash/verify operations.
func NewHasher(cost, maxConcurrent int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	if maxConcurrent <= 0 {
		return nil, errors.New("max concurrent must be positive")
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("dummy secret: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &Hasher{cost: cost, slots: semaphore.NewWeighted(int64(maxConcurrent)), dummy: string(dummy)}, nil
}

// ObserveWith registers a callback receiving the duration of every hash and
// verify call. It must be set before the Hasher is shared.
func (h *Hasher) ObserveWith(fn func(time.Duration)) {
	h.observe = fn
}

func (h *Hasher) track(start time.Time) {
	if h.observe != nil {
		h.observe(time.Since(start))
	}
}

// Hash returns the salted bcrypt hash of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)
	defer h.track(time.Now())

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hashed. A mismatch or a malformed
// hash yields false; only a cancelled context yields an error.
func (h *Hasher) Verify(ctx context.Context, plaintext, hashed string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)
	defer h.track(time.Now())

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil, nil
}

// Dummy returns a valid hash of an unguessable value at the configured cost,
// computed once by NewHasher. Login checks an unknown account against it so
// both failure paths cost the same.
func (h *Hasher) Dummy() string {
	return h.dummy
}
