package client

import (
	"errors"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNotSignedIn  = errors.New("not signed in")
)

// FieldViolation is one rejected input field as reported by the server.
type FieldViolation struct {
	Field       string
	Description string
}

// ValidationError carries the server's per-field messages for a rejected
// registration.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Description)
	}
	return strings.Join(parts, "; ")
}
