package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.Conn
}

func NewPostgresRepository(db dbx.Conn) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `SELECT id, email, username, password_hash, role, created_at, updated_at FROM accounts`

func (r *PostgresRepository) Insert(ctx context.Context, draft models.AccountDraft) (*models.Account, error) {
	draft.Normalize()
	if err := validation.Draft(&draft); err != nil {
		return nil, err
	}

	a := &models.Account{
		ID:           uuid.NewString(),
		Email:        draft.Email,
		Username:     draft.Username,
		PasswordHash: draft.PasswordHash,
		Role:         draft.Role,
	}

	query :=
		`INSERT INTO accounts (id, email, username, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.Username, a.PasswordHash, string(a.Role)).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return nil, &common.DuplicateKeyError{Field: field, Value: duplicateValue(draft, field)}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	key, ok := accountKey(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.findOne(ctx, selectAccount+` WHERE id = $1`, key)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE username = $1`, models.NormalizeUsername(username))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE email = $1`, models.NormalizeEmail(email))
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	a := &models.Account{}
	var role string
	var created, updated time.Time

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &role, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Role = common.Role(role)
	a.CreatedAt, a.UpdatedAt = created, updated
	return a, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, id string) error {
	key, ok := accountKey(id)
	if !ok {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// accountKey canonicalizes id for the uuid column. An id that is not a UUID
// cannot match any row.
func accountKey(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func classifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(c, "email"):
		return "email", true
	case strings.Contains(c, "username"):
		return "username", true
	default:
		return "", true
	}
}
