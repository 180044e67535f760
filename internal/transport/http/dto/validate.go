package dto

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username_format", validateUsernameFormat)
	return v
}

// validateUsernameFormat allows letters, digits, '_', '-' and '.'.
func validateUsernameFormat(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// validateStruct reports the first failing field as a domain validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrInternal(err)
	}
	return fieldError(verrs[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(field)
	case "len":
		return domain.ErrInvalidField(field, "length must be "+fe.Param())
	case "min":
		return domain.ErrInvalidField(field, "must be at least "+fe.Param())
	case "max":
		return domain.ErrInvalidField(field, "must be at most "+fe.Param())
	case "username_format":
		return domain.ErrInvalidField(field, "may contain letters, digits, '_', '-' and '.'")
	default:
		return domain.ErrInvalidField(field, "invalid")
	}
}
