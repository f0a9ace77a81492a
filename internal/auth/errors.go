package auth

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrFieldTooLong       = errors.New("field too long")
)

// Status maps an auth error to its HTTP status and the message shown to the
// caller. Unclassified errors are server errors and their cause is hidden.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrInvalidCredentials.Error()
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized, ErrMissingToken.Error()
	case errors.Is(err, ErrInvalidToken):
		return http.StatusForbidden, ErrInvalidToken.Error()
	case errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest, ErrDuplicateEmail.Error()
	case errors.Is(err, ErrPasswordTooLong):
		return http.StatusBadRequest, ErrPasswordTooLong.Error()
	case errors.Is(err, ErrFieldTooLong):
		return http.StatusBadRequest, ErrFieldTooLong.Error()
	default:
		return http.StatusInternalServerError, "server error"
	}
}
