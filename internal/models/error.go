package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication outcomes. ErrInvalidCredentials covers both wrong
	// password and unknown account so the two are indistinguishable to
	// callers; ErrUnavailable means the ledger or secret store could not
	// be consulted and authentication must be denied, never granted.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("authentication service unavailable")

	// Credential provisioning outcomes
	ErrAlreadyProvisioned = errors.New("account already has credentials")
	ErrWeakSecret         = errors.New("secret does not meet strength policy")
)

// LockedError is returned when an identifier is under lockout. RetryAfter
// is how long until the cooldown window ends.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, retry after %s", e.RetryAfter.Round(time.Second))
}

// IsLocked reports whether err is a lockout rejection and returns it if so.
func IsLocked(err error) (*LockedError, bool) {
	var le *LockedError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
