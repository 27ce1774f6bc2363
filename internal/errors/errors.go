package errors

import (
	"errors"
	"fmt"
)

// Common error types for the clinic front end
var (
	// Cookie errors
	ErrInvalidCookieName = errors.New("invalid cookie name")

	// Session errors
	ErrNoAccessToken    = errors.New("no access token")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrRefreshFailed    = errors.New("session refresh failed")
	ErrBootstrapFailed  = errors.New("session bootstrap failed")
	ErrSessionClosed    = errors.New("session resolver closed")
	ErrMissingBootstrap = errors.New("bootstrap context missing")

	// Backend errors
	ErrInvalidOTP   = errors.New("invalid otp code")
	ErrInvalidToken = errors.New("invalid token")
	ErrPlanLimit    = errors.New("plan limit reached")
	ErrTimeConflict = errors.New("time conflict")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
