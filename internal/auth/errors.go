package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrRemoteDisabled is returned by account operations when no database is configured.
var ErrRemoteDisabled = errors.New("accounts are unavailable: no database configured")

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the HTTP status code for an auth error, or 0 when
// the error does not belong to this package.
func HTTPStatus(err error) int {
	var (
		exists   *ErrEmailAlreadyExists
		creds    *ErrInvalidCredentials
		mismatch *ErrPasswordMismatch
		notFound *ErrUserNotFound
		invalid  *ErrValidation
	)
	switch {
	case errors.As(err, &exists):
		return http.StatusConflict
	case errors.As(err, &creds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrRemoteDisabled):
		return http.StatusServiceUnavailable
	default:
		return 0
	}
}
