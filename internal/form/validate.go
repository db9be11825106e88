// Package form validates the create and edit user forms before they reach the API.
package form

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// EmailTag is the validator tag for the local@domain.tld shape check.
const EmailTag = "emailshape"

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// ErrInvalid is returned by Submit when one or more fields fail validation.
var ErrInvalid = errors.New("form has invalid fields")

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// RegisterValidations installs the custom tags on v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation(EmailTag, func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

// Has reports whether field carries an error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// check runs the struct validator and translates failures with msgs.
func check(s any, msgs Messages) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		field := fieldName(fe)
		if errs.Has(field) {
			continue
		}
		switch fe.Tag() {
		case "required":
			errs[field] = msgs.Required
		case EmailTag:
			errs[field] = msgs.InvalidEmail
		default:
			errs[field] = fe.Error()
		}
	}
	return errs
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		return FieldName
	case "Email":
		return FieldEmail
	case "Password":
		return FieldPassword
	}
	return fe.Field()
}

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)
