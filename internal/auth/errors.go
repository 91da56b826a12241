package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials           = errors.New("invalid credentials")
	ErrAccountDisabled              = errors.New("account is disabled")
	ErrAccountLocked                = errors.New("account is locked")
	ErrLockedJustNow                = errors.New("account locked after too many failed attempts")
	ErrDuplicateIdentifier          = errors.New("user id already exists")
	ErrDuplicateContact             = errors.New("email already exists")
	ErrTokenInvalid                 = errors.New("invalid token")
	ErrTokenExpired                 = errors.New("token expired")
	ErrMalformedAuthorizationHeader = errors.New("malformed authorization header")

	ErrAccountNotFound = errors.New("account not found")

	// ErrInternal marks failures of the store, the hasher or the signer.
	ErrInternal = errors.New("internal error")
)

// LockError reports a rejected login on a locked account. Kind is either
// ErrAccountLocked or ErrLockedJustNow.
type LockError struct {
	Kind  error
	Until time.Time
}

func (e LockError) Error() string {
	return e.Kind.Error()
}

func (e LockError) Unwrap() error {
	return e.Kind
}

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
