package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("insert: %w", &ValidationError{Fields: []FieldError{
		{Field: "email", Message: "User email required."},
		{Field: "username", Message: "Username required."},
	}})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "insert: validation failed: email, username", err.Error())

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestDuplicateKeyError_As(t *testing.T) {
	err := fmt.Errorf("insert: %w", &DuplicateKeyError{Field: "email", Value: "a@x.com"})

	var dk *DuplicateKeyError
	require.True(t, errors.As(err, &dk))
	assert.Equal(t, "email", dk.Field)
	assert.Equal(t, "a@x.com", dk.Value)
	assert.NotContains(t, err.Error(), "a@x.com")
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleModerator, RoleSuperuser} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("ADMIN").Valid())
	assert.False(t, Role("").Valid())
}
