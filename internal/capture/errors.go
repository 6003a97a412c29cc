package capture

import (
	"errors"
	"fmt"
)

// RegistrationErrorCode categorizes registration failures.
type RegistrationErrorCode string

const (
	// ErrCodeMissingFilter indicates Register was called without a Filter hook.
	ErrCodeMissingFilter RegistrationErrorCode = "MISSING_FILTER"

	// ErrCodeAlreadyRegistered indicates a second Register on the same source.
	ErrCodeAlreadyRegistered RegistrationErrorCode = "ALREADY_REGISTERED"

	// ErrCodeNotRegistered indicates Run was called before Register.
	ErrCodeNotRegistered RegistrationErrorCode = "NOT_REGISTERED"
)

// RegistrationError reports a failure to attach hooks to a capture subsystem.
// The service treats it as fatal.
type RegistrationError struct {
	Code    RegistrationErrorCode
	Message string
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRegistrationError returns true if err is or wraps a RegistrationError.
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}
