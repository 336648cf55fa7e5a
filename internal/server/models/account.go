// Package models defines server-side data models for accounts and sessions.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Account is a persisted user account. PasswordHash is never returned to a
// client or written to logs.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         common.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountDraft is the input to the repository insert. Tags drive the schema
// validation performed by the repository before anything is written.
type AccountDraft struct {
	Email        string      `field:"email" validate:"required,email"`
	Username     string      `field:"username" validate:"required,min=6"`
	PasswordHash string      `field:"password" validate:"required"`
	Role         common.Role `field:"role" validate:"omitempty,oneof=USER MODERATOR SUPERUSER"`
}

// Normalize applies the canonical form: lower-cased, trimmed email, trimmed
// username and the default role.
func (d *AccountDraft) Normalize() {
	d.Email = NormalizeEmail(d.Email)
	d.Username = NormalizeUsername(d.Username)
	if d.Role == "" {
		d.Role = common.RoleUser
	}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername trims a username. Usernames stay case-sensitive.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}
