// Package validation checks request payloads and path identifiers and
// reports the first problem as a *model.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"minitweet/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so messages match what the client sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := fieldErrs[0]
	return &model.ValidationError{Field: fe.Field(), Message: message(fe)}
}

// Var validates a single value, naming it field in the error.
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &model.ValidationError{Field: field, Message: messageFor(field, fieldErrs[0])}
	}
	return fmt.Errorf("validate %s: %w", field, err)
}

// ID checks that a path parameter is a well-formed UUID.
func ID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrInvalidID
	}
	return nil
}

func message(fe validator.FieldError) string {
	return messageFor(fe.Field(), fe)
}

func messageFor(field string, fe validator.FieldError) string {
	label := displayName(field)
	if field == "content" {
		switch fe.Tag() {
		case "required":
			return "Tweet content cannot be empty."
		case "max":
			return fmt.Sprintf("Tweet content cannot exceed %s characters.", fe.Param())
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please provide a valid email"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)
	case "min":
		if field == "password" {
			return fmt.Sprintf("Password must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "excludesall":
		return fmt.Sprintf("%s cannot contain whitespace", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func displayName(field string) string {
	switch field {
	case "emailOrUsername":
		return "Email or username"
	case "profilePicture":
		return "Profile picture"
	case "":
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
