package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal             = errors.New("internal error")
	ErrAuthenticationFailed = errors.New("invalid username or password")
	ErrValidation           = errors.New("validation failed")

	// Infrastructure faults. Neither is retried.
	ErrSigningUnavailable      = errors.New("signing unavailable")
	ErrSessionStoreUnavailable = errors.New("session store unavailable")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// DuplicateKeyError reports a unique constraint violation on a single field.
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key: %s", e.Field)
}

// FieldError is a single failed field check with its user-facing message.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every field that failed schema validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
