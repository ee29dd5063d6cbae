package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Creation(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewConfigError("test config error", cause)

	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.Equal(t, "test config error", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.NotNil(t, err.Context)
}

func TestDomainError_WithContext(t *testing.T) {
	err := NewConflictError("test error", nil)

	err = err.WithContext("service", "worker")
	err = err.WithContext("pid", 12345)

	assert.Equal(t, "worker", err.Context["service"])
	assert.Equal(t, 12345, err.Context["pid"])
}

func TestDomainError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		error    *DomainError
		expected string
	}{
		{
			name:     "error without cause",
			error:    NewLaunchError("test message", nil),
			expected: "launch: test message",
		},
		{
			name:     "error with cause",
			error:    NewSyncError("test message", errors.New("cause")),
			expected: "sync: test message: cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.error.Error())
		})
	}
}

func TestDomainError_TypeChecking(t *testing.T) {
	configErr := NewConfigError("config error", nil)
	conflictErr := NewConflictError("conflict error", nil)

	assert.True(t, IsConfigError(configErr))
	assert.False(t, IsConfigError(conflictErr))

	assert.True(t, IsConflictError(conflictErr))
	assert.False(t, IsConflictError(configErr))

	// Plain errors match no type
	wrappedErr := errors.New("wrapped")
	assert.False(t, IsConfigError(wrappedErr))
}

func TestDomainError_TypeCheckingWrapped(t *testing.T) {
	// Type checks must see through fmt.Errorf wrapping
	inner := NewTransferError("copy failed", nil)
	outer := fmt.Errorf("stage failed: %w", inner)

	assert.True(t, IsTransferError(outer))
	assert.False(t, IsLaunchError(outer))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewProcessError("test error", cause)

	unwrapped := errors.Unwrap(err)
	assert.Equal(t, cause, unwrapped)
}

func TestDomainError_StageTypes(t *testing.T) {
	tests := []struct {
		err   *DomainError
		check func(error) bool
	}{
		{NewConnectivityError("", nil), IsConnectivityError},
		{NewInstallError("", nil), IsInstallError},
		{NewSyncError("", nil), IsSyncError},
		{NewTransferError("", nil), IsTransferError},
		{NewLaunchError("", nil), IsLaunchError},
		{NewStaleStateError("", nil), IsStaleStateError},
		{NewTimeoutError("", nil), IsTimeoutError},
		{NewNotFoundError("", nil), IsNotFoundError},
		{NewValidationError("", nil), IsValidationError},
		{NewIOError("", nil), IsIOError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}
