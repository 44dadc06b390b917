package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "user not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "user not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewDomainError(ErrorTypeNotFound, "gone", nil), ErrUserNotFound, true},
		{"different error type", NewDomainError(ErrorTypeValidation, "bad", nil), ErrUserNotFound, false},
		{"not a domain error", ErrUserNotFound, errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrUserNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"nil is not found", nil, IsNotFoundError, false},
		{"validation", ErrInvalidUserID, IsValidationError, true},
		{"not found is not validation", ErrUserNotFound, IsValidationError, false},
		{"unauthorized", ErrUnauthorized, IsUnauthorizedError, true},
		{"forbidden", NewDomainError(ErrorTypeForbidden, "access forbidden", nil), IsForbiddenError, true},
		{"unauthorized is not forbidden", ErrUnauthorized, IsForbiddenError, false},
		{"internal", NewDomainError(ErrorTypeInternal, "internal server error", nil), IsInternalError, true},
		{"revocation unavailable", ErrRevocationUnavailable, IsUnavailableError, true},
		{"identity unavailable", ErrIdentityUnavailable, IsUnavailableError, true},
		{"regular error", errors.New("regular"), IsUnavailableError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrUserNotFound))
	assert.Equal(t, ErrorTypeUnavailable, GetErrorType(ErrIdentityUnavailable))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "id").WithDetail("reason", "not a uuid")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "id", details["field"])
	assert.Equal(t, "not a uuid", details["reason"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestDomainError_Wrap(t *testing.T) {
	baseErr := errors.New("connection refused")
	wrapped := ErrRevocationUnavailable.Wrap(baseErr).WithDetail("backend", "redis")

	assert.True(t, IsUnavailableError(wrapped))
	assert.ErrorIs(t, wrapped, ErrRevocationUnavailable)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
	assert.Equal(t, "revocation registry unavailable", wrapped.Message)

	// the sentinel itself is not modified
	assert.Nil(t, ErrRevocationUnavailable.Err)
	assert.Empty(t, ErrRevocationUnavailable.Details)
}
