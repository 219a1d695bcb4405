package errs

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrAdminNotFound  = errors.New("admin not found")
)

// ValidationError names the first rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func MissingField(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Missing required field: %s", field),
	}
}

func InvalidField(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
