package errors

import (
	"errors"
	"fmt"
)

// Common error types for the daemon-app provisioning service
var (
	// Auth flow errors
	ErrStateMissing  = errors.New("state is missing")
	ErrCSRFMismatch  = errors.New("csrf token does not match")
	ErrSessionLost   = errors.New("no session state for callback")
	ErrUnknownIntent = errors.New("unknown post-login intent")

	// Provisioning errors
	ErrAppNotConsented   = errors.New("application is not registered or consented")
	ErrDaemonAppNotFound = errors.New("daemon application not found")
	ErrNoSubscription    = errors.New("cannot find subscription")
	ErrRoleAlreadyExists = errors.New("role assignment already exists")

	// Storage errors
	ErrEmptyTenant = errors.New("tenantID is empty")
	ErrEmptyRecord = errors.New("record is empty")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
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
