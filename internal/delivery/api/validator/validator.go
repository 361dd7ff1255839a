// Package validator adapts go-playground/validator to echo.Validator.
package validator

import (
	"reflect"
	"strings"

	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	playground "github.com/go-playground/validator/v10"
)

// Validator reports struct tag violations as a *domainerrors.ValidationError keyed by JSON field name.
type Validator struct {
	validate *playground.Validate
}

// New creates a Validator that names fields by their json tag.
func New() *Validator {
	validate := playground.New(playground.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: validate}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate request")
	}

	violations := make([]domainerrors.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, domainerrors.FieldViolation{
			Field: fe.Field(),
			Rule:  fe.Tag(),
		})
	}

	return domainerrors.NewValidationError(violations...)
}
