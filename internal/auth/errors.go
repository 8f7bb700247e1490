package apierr

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when no user matches the given login key or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountLocked is returned when an inactive account tries to log in.
	ErrAccountLocked = errors.New("account is locked")
	// ErrAccountLockedNow is returned by the failed attempt that locks the account.
	ErrAccountLockedNow = errors.New("account locked after too many failed attempts")
	// ErrInvalidToken is returned when a bearer token is missing, malformed, unknown or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevokedToken is returned when a token has been explicitly revoked.
	ErrRevokedToken = errors.New("token has been revoked")
	// ErrProfileNotFound is returned when a profile id does not exist or a user has no profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPermissionNotFound is returned when a permission id does not exist.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrAuditLogNotFound is returned when an audit entry id does not exist.
	ErrAuditLogNotFound = errors.New("audit log not found")
	// ErrClientNotFound is returned when a client id does not exist.
	ErrClientNotFound = errors.New("client not found")
)

// BadPasswordError reports a wrong password that did not yet lock the account.
type BadPasswordError struct {
	Attempt int
	Max     int
}

func (e *BadPasswordError) Error() string {
	return fmt.Sprintf("invalid password: attempt %d of %d", e.Attempt, e.Max)
}

// FieldError is a store-level constraint violation attributable to one input field,
// such as a duplicate email or a reference to a missing profile.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
