package errors

import (
	"errors"
	"fmt"
)

// Error types for classification across the supervisor and the deployment
// pipeline. Each pipeline stage and supervisor operation maps its failures
// onto exactly one of these.

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeConnectivity ErrorType = "connectivity"
	ErrorTypeInstall      ErrorType = "install"
	ErrorTypeSync         ErrorType = "sync"
	ErrorTypeTransfer     ErrorType = "transfer"
	ErrorTypeLaunch       ErrorType = "launch"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeStaleState   ErrorType = "stale_state"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeProcess      ErrorType = "process"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeIO           ErrorType = "io"
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Configuration errors (missing or malformed required settings)
func NewConfigError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeConfig, message, cause)
}

// Deployment pipeline errors, one constructor per stage failure class
func NewConnectivityError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeConnectivity, message, cause)
}

func NewInstallError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeInstall, message, cause)
}

func NewSyncError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeSync, message, cause)
}

func NewTransferError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeTransfer, message, cause)
}

func NewLaunchError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeLaunch, message, cause)
}

// Supervisor errors
func NewConflictError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeConflict, message, cause)
}

func NewStaleStateError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeStaleState, message, cause)
}

func NewTimeoutError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeTimeout, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcess, message, cause)
}

// Generic errors
func NewNotFoundError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeNotFound, message, cause)
}

func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func hasType(err error, errorType ErrorType) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == errorType
}

// Error checking helpers
func IsConfigError(err error) bool       { return hasType(err, ErrorTypeConfig) }
func IsConnectivityError(err error) bool { return hasType(err, ErrorTypeConnectivity) }
func IsInstallError(err error) bool      { return hasType(err, ErrorTypeInstall) }
func IsSyncError(err error) bool         { return hasType(err, ErrorTypeSync) }
func IsTransferError(err error) bool     { return hasType(err, ErrorTypeTransfer) }
func IsLaunchError(err error) bool       { return hasType(err, ErrorTypeLaunch) }
func IsConflictError(err error) bool     { return hasType(err, ErrorTypeConflict) }
func IsStaleStateError(err error) bool   { return hasType(err, ErrorTypeStaleState) }
func IsTimeoutError(err error) bool      { return hasType(err, ErrorTypeTimeout) }
func IsProcessError(err error) bool      { return hasType(err, ErrorTypeProcess) }
func IsNotFoundError(err error) bool     { return hasType(err, ErrorTypeNotFound) }
func IsValidationError(err error) bool   { return hasType(err, ErrorTypeValidation) }
func IsIOError(err error) bool           { return hasType(err, ErrorTypeIO) }
