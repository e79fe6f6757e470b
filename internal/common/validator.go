package common

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct checks the `validate` tags of v and returns a single
// readable message describing every failing field.
func ValidateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		messages = append(messages, describeFieldError(fieldErr))
	}

	return errors.New(strings.Join(messages, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := strings.ToLower(fieldErr.Field())

	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "please enter a valid email address"
	case "eqfield":
		return "password and confirmation do not match"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func IsValidURL(rawurl string) bool {
	parsed, err := url.ParseRequestURI(rawurl)
	if err != nil {
		return false
	}
	return len(parsed.Scheme) > 0 && len(parsed.Host) > 0
}
