// Package apperrors defines exit codes and user-facing error types.
package apperrors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the nback binary.
const (
	ExitSuccess      = 0
	ExitErrorGeneric = 1
	ExitErrorConfig  = 4
)

// ConfigError reports invalid flags or configuration values.
type ConfigError struct {
	Message string
	Cause   error
}

// Error implements error.
func (e ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e ConfigError) Unwrap() error { return e.Cause }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// WrapConfigError marks cause as a configuration problem.
func WrapConfigError(cause error, format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...), Cause: cause}
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsConfigError(err):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
