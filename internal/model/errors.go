package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidID is returned when a path identifier is not a well-formed UUID
	ErrInvalidID = errors.New("invalid ID format")

	// ErrServiceUnavailable is returned when the store cannot answer within the request deadline
	ErrServiceUnavailable = errors.New("service unavailable")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DuplicateFieldError is returned when a unique field (username, email) is already taken.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	if e.Field == "" {
		return "Value already exists."
	}
	return fmt.Sprintf("%s%s already exists.", strings.ToUpper(e.Field[:1]), e.Field[1:])
}
