// Package accounts persists user accounts. Every implementation validates the
// draft before writing and reports unique constraint hits as
// *common.DuplicateKeyError naming the offending field.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, draft models.AccountDraft) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Remove(ctx context.Context, id string) error
}

func duplicateValue(d models.AccountDraft, field string) string {
	switch field {
	case "email":
		return d.Email
	case "username":
		return d.Username
	}
	return ""
}
