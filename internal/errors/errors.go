package errors

import (
	"errors"
	"fmt"
)

var (
	ErrURLNotFound      = errors.New("URL not found")
	ErrShortCodeExists  = errors.New("short code already exists")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrInvalidShortCode = errors.New("invalid short code")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Is matches ErrInvalidURL and ErrInvalidShortCode by field.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidURL:
		return e.Field == "url"
	case ErrInvalidShortCode:
		return e.Field == "short_code"
	}
	return false
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

type BusinessError struct {
	Code    string
	Message string
	Cause   error
}

func (e *BusinessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

const (
	CodeAllocationExhausted = "ALLOCATION_EXHAUSTED"
	CodeDatabaseError       = "DATABASE_ERROR"
)

// ErrAllocationExhausted means every candidate code collided within the attempt budget.
var ErrAllocationExhausted = NewBusinessError(CodeAllocationExhausted, "failed to generate unique short code", nil)

// NewDatabaseError wraps a store failure so it is never mistaken for a missing record.
func NewDatabaseError(message string, cause error) *BusinessError {
	return NewBusinessError(CodeDatabaseError, message, cause)
}

// IsValidationError проверяет является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsBusinessError проверяет является ли ошибка бизнес-ошибкой
func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

func GetValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

// GetBusinessError извлекает BusinessError из ошибки
func GetBusinessError(err error) *BusinessError {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr
	}
	return nil
}
