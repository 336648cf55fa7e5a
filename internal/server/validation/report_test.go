package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *Report
	}{
		{name: "nil", err: nil, want: nil},
		{
			name: "duplicate email",
			err:  fmt.Errorf("insert account: %w", &common.DuplicateKeyError{Field: "email", Value: "a@x.com"}),
			want: &Report{Messages: []Message{{Field: "email", Text: "The email 'a@x.com' already exists."}}},
		},
		{
			name: "duplicate username",
			err:  &common.DuplicateKeyError{Field: "username", Value: "alice1"},
			want: &Report{Messages: []Message{{Field: "username", Text: "The username 'alice1' already exists."}}},
		},
		{
			name: "duplicate on an unattributed constraint",
			err:  &common.DuplicateKeyError{},
			want: &Report{Messages: []Message{{Text: DuplicateAccountMessage}}},
		},
		{
			name: "field validation",
			err: &common.ValidationError{Fields: []common.FieldError{
				{Field: "email", Message: "User email required."},
				{Field: "password", Message: "The password must be of minimum length 10 characters."},
			}},
			want: &Report{Messages: []Message{
				{Field: "email", Text: "User email required."},
				{Field: "password", Text: "The password must be of minimum length 10 characters."},
			}},
		},
		{
			name: "already a report",
			err:  fmt.Errorf("wrapped: %w", PasswordMismatch()),
			want: PasswordMismatch(),
		},
		{
			name: "generic",
			err:  errors.New("something odd"),
			want: &Report{Messages: []Message{{Text: "something odd"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapError(tt.err))
		})
	}
}

func TestMapError_Deterministic(t *testing.T) {
	err := &common.DuplicateKeyError{Field: "email", Value: "a@x.com"}
	assert.Equal(t, MapError(err), MapError(err))
}

func TestReport_ErrorAndTexts(t *testing.T) {
	r := &Report{Messages: []Message{{Field: "a", Text: "First."}, {Text: "Second."}}}
	assert.Equal(t, "First. Second.", r.Error())
	assert.Equal(t, []string{"First.", "Second."}, r.Texts())
}

func TestIsMappable(t *testing.T) {
	assert.True(t, IsMappable(&common.DuplicateKeyError{Field: "email"}))
	assert.True(t, IsMappable(fmt.Errorf("x: %w", &common.ValidationError{})))
	assert.True(t, IsMappable(PasswordMismatch()))
	assert.False(t, IsMappable(errors.New("db down")))
	assert.False(t, IsMappable(common.ErrSessionStoreUnavailable))
}
