package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// PasswordMismatchMessage is reported when password and confirmation differ.
const PasswordMismatchMessage = "Passwords do not match."

// DuplicateAccountMessage is reported for a unique constraint hit that cannot
// be attributed to a single field.
const DuplicateAccountMessage = "An account with these details already exists."

// Message is one user-facing line of a report. Field is empty for messages
// that do not belong to a single input field.
type Message struct {
	Field string
	Text  string
}

// Report is the uniform validation outcome returned to callers. It implements
// error so use cases can return it on their error path.
type Report struct {
	Messages []Message
}

func (r *Report) Error() string {
	texts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, " ")
}

// Texts returns the message texts in order.
func (r *Report) Texts() []string {
	out := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, m.Text)
	}
	return out
}

// PasswordMismatch is the single-message report for a failed confirmation.
func PasswordMismatch() *Report {
	return &Report{Messages: []Message{{Field: "confirmPassword", Text: PasswordMismatchMessage}}}
}

// MapError turns a raw failure into a report:
//   - duplicate key: "The {field} '{value}' already exists.", or
//     DuplicateAccountMessage when the field is unknown
//   - field validation: one message per failing field
//   - anything else: a single message carrying the error text
//
// It returns nil for a nil error.
func MapError(err error) *Report {
	if err == nil {
		return nil
	}

	var dup *common.DuplicateKeyError
	if errors.As(err, &dup) {
		if dup.Field == "" {
			return &Report{Messages: []Message{{Text: DuplicateAccountMessage}}}
		}
		return &Report{Messages: []Message{{
			Field: dup.Field,
			Text:  fmt.Sprintf("The %s '%s' already exists.", dup.Field, dup.Value),
		}}}
	}

	var verr *common.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		r := &Report{Messages: make([]Message, 0, len(verr.Fields))}
		for _, f := range verr.Fields {
			r.Messages = append(r.Messages, Message{Field: f.Field, Text: f.Message})
		}
		return r
	}

	var report *Report
	if errors.As(err, &report) {
		return report
	}

	return &Report{Messages: []Message{{Text: err.Error()}}}
}

// IsMappable reports whether err is a validation-class failure that MapError
// renders field by field.
func IsMappable(err error) bool {
	var dup *common.DuplicateKeyError
	var verr *common.ValidationError
	var report *Report
	return errors.As(err, &dup) || errors.As(err, &verr) || errors.As(err, &report)
}
