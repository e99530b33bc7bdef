package services

import (
	"errors"
	"fmt"

	"github.com/codeninja-coin/admin-service/internal/validator"
)

// Service errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")

	ErrStudentNotFound    = fmt.Errorf("student %w", ErrNotFound)
	ErrRewardItemNotFound = fmt.Errorf("reward item %w", ErrNotFound)
)

// User facing messages of request validation failures
const (
	msgStudentRequired    = "First name, last name, and belt are required"
	msgStudentInvalid     = "Invalid student data"
	msgRewardItemRequired = "Title and price are required"
	msgPricePositive      = "Title and price are required; price must be a positive integer"
	msgStockNonNegative   = "Stock must be a non-negative integer"
	msgRewardItemInvalid  = "Invalid reward item data"
)

// RequestValidationError carries a message fit for the caller and the field
// level details behind it
type RequestValidationError struct {
	Message string
	Fields  validator.ValidationErrors
}

func NewRequestValidationError(message string, fields validator.ValidationErrors) *RequestValidationError {
	return &RequestValidationError{
		Message: message,
		Fields:  fields,
	}
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Fields.Error())
}

func (e *RequestValidationError) Unwrap() error {
	return ErrValidationFailed
}

// IsValidationError reports whether err is a request validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNotFoundError reports whether err is a missing entity
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
