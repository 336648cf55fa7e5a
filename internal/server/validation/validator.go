// Package validation checks registration input and account drafts, and maps
// raw persistence failures to a uniform, user-facing report.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// RegistrationForm is the credential part of a register request, checked
// before the password is hashed.
type RegistrationForm struct {
	Username string `field:"username" validate:"required,min=6"`
	Email    string `field:"email" validate:"required,email"`
	Password string `field:"password" validate:"required,min=10,maxbytes=72"`
}

// messages maps field and failed tag to the declared message. {VALUE} is
// replaced with the offending value.
var messages = map[string]map[string]string{
	"email": {
		"required": "User email required.",
		"email":    "{VALUE} is not an valid email address.",
	},
	"username": {
		"required": "Username required.",
		"min":      "The username must be of minimum length 6 characters.",
	},
	"password": {
		"required": "User password required.",
		"min":      "The password must be of minimum length 10 characters.",
		"maxbytes": "The password must be at most 72 bytes long.",
	},
	"role": {
		"oneof": "{VALUE} is not a valid role.",
	},
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("field"); name != "" {
				return name
			}
			return strings.ToLower(f.Name)
		})
		// bcrypt rejects longer input, and validator's max counts runes
		_ = validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= limit
		})
	})
	return validate
}

// Registration validates a registration form. The returned error is a
// *common.ValidationError listing every failing field, or nil.
func Registration(f RegistrationForm) error {
	return check(f)
}

// Draft validates an account draft the way the persistence schema does.
func Draft(d *models.AccountDraft) error {
	return check(d)
}

func check(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation engine: %w", err)
	}

	out := &common.ValidationError{Fields: make([]common.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, common.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	text, ok := messages[fe.Field()][fe.Tag()]
	if !ok {
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
	return strings.ReplaceAll(text, "{VALUE}", fmt.Sprint(fe.Value()))
}
