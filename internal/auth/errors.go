package auth

import (
	"errors"
	"fmt"

	"github.com/flotiq/flotiq-setup/internal/auth/models"
)

// Kind classifies why a login attempt did not produce keys
type Kind int

const (
	KindUnknown Kind = iota
	KindUserRejected
	KindAuthFailed
	KindLocalServer
	KindTimedOut
)

func (k Kind) String() string {
	switch k {
	case KindUserRejected:
		return "user_rejected"
	case KindAuthFailed:
		return "auth_failed"
	case KindLocalServer:
		return "local_server_error"
	case KindTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Error is the single outcome type for a failed callback wait
type Error struct {
	Kind   Kind
	Status models.Status
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// StatusError builds the error reported for a non-ok callback status
func StatusError(status models.Status) *Error {
	kind := KindAuthFailed
	if status == models.StatusRejected {
		kind = KindUserRejected
	}
	return &Error{
		Kind:   kind,
		Status: status,
		Err:    fmt.Errorf("login page reported status %q", string(status)),
	}
}

// KindOf returns the Kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnknown
}

// Message returns the text shown to the user for a failed login
func Message(err error) string {
	switch KindOf(err) {
	case KindUserRejected:
		return "User did not consent to provide the keys. Authorization process has been terminated."
	case KindAuthFailed:
		return "A system error occurred during the authorization attempt. Please try again later."
	case KindTimedOut:
		return "Timed out waiting for the browser to complete the login."
	default:
		return "A system error occurred. Please try again later."
	}
}
