// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Configuration errors (100-199): Invalid parameters, unknown variants, version mismatches
//   - Data errors (200-299): Empty or unusable series, warm-up shortfalls, query failures
//   - Runtime errors (300-399): Signal provider and risk policy failures during a run
//   - State errors (400-499): Operations against a simulation in the wrong state
//   - Market data errors (500-599): Market data fetching and parsing errors
//   - Persistence errors (600-699): Result export and journal failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidConfiguration, "period must be positive")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeStrategyRuntimeError, "rsi evaluation failed", originalErr)
//
//	// Check error kind
//	if errors.IsConfigurationError(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsConfigurationError reports whether err was raised while validating
// strategy, risk or engine parameters.
func IsConfigurationError(err error) bool {
	code := GetCode(err)

	return code == ErrCodeInvalidConfiguration ||
		code == ErrCodeInvalidParameter ||
		code == ErrCodeInvalidPeriod ||
		code == ErrCodeInvalidThreshold ||
		code == ErrCodeVersionMismatch
}

// IsUnknownVariantError reports whether err names an unregistered strategy or risk policy.
func IsUnknownVariantError(err error) bool {
	return HasCode(err, ErrCodeUnknownVariant)
}

// IsEmptyDataError reports whether err was raised for an empty or unusable bar series.
func IsEmptyDataError(err error) bool {
	return HasCode(err, ErrCodeEmptyData)
}

// IsStateError reports whether err was raised against a simulation in an invalid state.
func IsStateError(err error) bool {
	code := GetCode(err)

	return code == ErrCodeInvalidState || code == ErrCodeSimulationNotFound || code == ErrCodePositionNotFound
}

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., indicator calculations requiring a minimum period).
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Name     string // Optional: indicator context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, name, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Name:     name,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, name, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Name:     name,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
