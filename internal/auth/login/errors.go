package login

import (
	"errors"
	"fmt"
)

// Kind identifies one of the closed set of login failure conditions. Every
// failure a login attempt can surface maps to exactly one kind; there is no
// catch-all variant.
type Kind string

const (
	// KindAborted means the user cancelled the interactive flow (or it timed out).
	KindAborted Kind = "aborted"
	// KindUnsupportedOS means no login helper exists for this platform.
	KindUnsupportedOS Kind = "unsupported_os"
	// KindStateMismatch means the anti-CSRF state check failed.
	KindStateMismatch Kind = "state_mismatch"
	// KindInvalidHelperResponse means the helper produced unparsable output.
	KindInvalidHelperResponse Kind = "invalid_helper_response"
	// KindTokenExchangeFailed means the provider rejected the authorization code.
	KindTokenExchangeFailed Kind = "token_exchange_failed"
	// KindNetwork means a transport-level failure reaching the provider.
	KindNetwork Kind = "network"
	// KindIO means local credential persistence failed.
	KindIO Kind = "io"
)

// Error represents a login failure. It carries a machine-distinguishable
// kind, a user-facing message, and an optional wrapped cause.
type Error struct {
	// Kind is the failure category.
	Kind Kind `json:"kind"`
	// Message is a human-readable description of the error.
	Message string `json:"message"`
	// Cause is the underlying error, when any.
	Cause error `json:"-"`
}

// Error returns a string representation of the login error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Base errors for each failure kind.
var (
	// ErrAborted indicates the user closed the interactive surface before
	// completing authorization.
	ErrAborted = &Error{
		Kind:    KindAborted,
		Message: "login was cancelled before completing authorization",
	}

	// ErrUnsupportedOS indicates no interactive login helper is available on
	// this platform.
	ErrUnsupportedOS = &Error{
		Kind:    KindUnsupportedOS,
		Message: "interactive login is not supported on this platform",
	}

	// ErrStateMismatch indicates the state returned by the helper did not
	// match the locally generated one.
	ErrStateMismatch = &Error{
		Kind:    KindStateMismatch,
		Message: "authorization state check failed",
	}

	// ErrInvalidHelperResponse indicates the helper output could not be
	// parsed as the expected result object.
	ErrInvalidHelperResponse = &Error{
		Kind:    KindInvalidHelperResponse,
		Message: "login helper produced an invalid response",
	}

	// ErrTokenExchangeFailed indicates the provider rejected the
	// authorization code.
	ErrTokenExchangeFailed = &Error{
		Kind:    KindTokenExchangeFailed,
		Message: "failed to exchange authorization code for tokens",
	}

	// ErrNetwork indicates a transport-level failure reaching the provider.
	ErrNetwork = &Error{
		Kind:    KindNetwork,
		Message: "network error while contacting the identity provider",
	}

	// ErrIO indicates the credential file could not be written or removed.
	ErrIO = &Error{
		Kind:    KindIO,
		Message: "failed to persist credentials",
	}
)

// WrapError attaches a cause to one of the base errors.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Kind:    base.Kind,
		Message: base.Message,
		Cause:   cause,
	}
}

// AsError extracts a login *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var loginErr *Error
	if errors.As(err, &loginErr) {
		return loginErr, true
	}
	return nil, false
}

// UserMessage returns the user-facing message for an error. Aborted failures
// get a deliberately neutral message with no detail about why; all other
// kinds identify the failure category without leaking secrets.
func UserMessage(err error) string {
	loginErr, ok := AsError(err)
	if !ok {
		return "Login failed. Please try again."
	}
	switch loginErr.Kind {
	case KindAborted:
		return "Login aborted."
	case KindUnsupportedOS:
		return "Interactive login is not available on this platform."
	case KindStateMismatch:
		return "Login failed a security check. Please try again."
	case KindInvalidHelperResponse:
		return "The login helper returned an unexpected response. Please try again."
	case KindTokenExchangeFailed:
		return "The identity provider rejected the login. Please try again."
	case KindNetwork:
		return "Could not reach the identity provider. Check your connection and try again."
	case KindIO:
		return "Could not save credentials to disk."
	default:
		return "Login failed. Please try again."
	}
}
