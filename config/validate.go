package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}

			return name
		})

		_ = validate.RegisterValidation("cop_algorithm", func(fl validator.FieldLevel) bool {
			alg, ok := fl.Field().Interface().(copsig.Algorithm)
			return ok && alg.Valid()
		})
	})

	return validate
}

// Validate checks s and returns a configuration error naming every invalid
// field.
func (s *Settings) Validate() error {
	err := getValidator().Struct(s)
	if err == nil {
		if logErr := s.Log.Validate(); logErr != nil {
			return coperr.Wrap(coperr.KindConfiguration, logErr, "invalid settings")
		}

		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return coperr.Wrap(coperr.KindConfiguration, err, "invalid settings")
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldPath(fe)+": "+describe(fe))
	}

	return coperr.Configuration("invalid settings: %s", strings.Join(messages, "; "))
}

// fieldPath drops the root struct name from the namespace, e.g.
// "Settings.proxy.port" becomes "proxy.port".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + strings.ToLower(fe.Param()) + " is set"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	case "min", "max":
		return "must be between 1 and 65535"
	case "file":
		return "must be an existing file"
	case "cop_algorithm":
		return "unsupported algorithm"
	default:
		return "is invalid"
	}
}
