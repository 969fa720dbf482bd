package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/qrtag-backend/internal/errs"
)

// CreateProfileInput carries the client-supplied profile fields.
// Field order matters: when several required fields are missing, the first
// one in declaration order is reported.
type CreateProfileInput struct {
	FullName string  `json:"fullName" validate:"required"`
	Phone    string  `json:"phone"    validate:"required"`
	Telegram *string `json:"telegram"`
	Email    *string `json:"email"`
}

// validate is safe for concurrent use once built.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names ("fullName") instead of Go names ("FullName").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// normalize trims and NFC-normalizes every field. Blank optional fields
// become nil so they are stored and served as null.
func (in CreateProfileInput) normalize() CreateProfileInput {
	return CreateProfileInput{
		FullName: cleanText(in.FullName),
		Phone:    cleanText(in.Phone),
		Telegram: cleanOptional(in.Telegram),
		Email:    cleanOptional(in.Email),
	}
}

// check returns a validation error naming the first missing required field.
func (in CreateProfileInput) check() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errs.Validation("%s is required", verrs[0].Field())
	}
	return errs.Internal(err)
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := cleanText(*s)
	if v == "" {
		return nil
	}
	return &v
}
