package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/user-service/internal/apperror"
)

// Structs runs the declarative `validate:"..."` tags of request types:
// presence, lengths, e-mail shape and numeric bounds. Field names in errors
// come from the json tags, with nested fields joined by dots
// ("address.city").
type Structs struct {
	validate *validator.Validate
}

// NewStructs creates a validator that reports json field names.
//
// RegisterTagNameFunc makes FieldError.Namespace() use json names, so a
// failure on CreateUserInput.Address.City comes back as
// "CreateUserInput.address.city". Check strips the leading type name.
//
// WithRequiredStructEnabled makes `required` on a struct-typed field mean
// "not the zero struct"; without it validator v10 ignores the tag there.
func NewStructs() *Structs {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Structs{validate: v}
}

// Check validates in and returns the first failure as an InvalidFormat
// *apperror.AppError.
func (s *Structs) Check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	return apperror.InvalidFormat(field, message(field, fe))
}

// fieldPath drops the leading struct type name from a namespace such as
// "createUserRequest.address.city".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (failed on '%s')", field, fe.Tag())
	}
}
