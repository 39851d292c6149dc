package login

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapErrorPreservesChain(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	wrapped := WrapError(ErrNetwork, cause)

	if wrapped.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", wrapped.Kind, KindNetwork)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error lost its cause")
	}

	rewrapped := fmt.Errorf("login: %w", wrapped)
	got, ok := AsError(rewrapped)
	if !ok {
		t.Fatal("AsError() failed to find the login error in the chain")
	}
	if got.Kind != KindNetwork {
		t.Errorf("Kind through chain = %q, want %q", got.Kind, KindNetwork)
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"aborted is neutral", WrapError(ErrAborted, errors.New("window closed by user at step 3")), "Login aborted."},
		{"unsupported os", ErrUnsupportedOS, "Interactive login is not available on this platform."},
		{"state mismatch", ErrStateMismatch, "Login failed a security check. Please try again."},
		{"unknown error", errors.New("boom"), "Login failed. Please try again."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessageNeverLeaksCause(t *testing.T) {
	t.Parallel()

	secret := "authorization_code=abc123"
	for _, base := range []*Error{
		ErrAborted, ErrUnsupportedOS, ErrStateMismatch,
		ErrInvalidHelperResponse, ErrTokenExchangeFailed, ErrNetwork, ErrIO,
	} {
		msg := UserMessage(WrapError(base, errors.New(secret)))
		if strings.Contains(msg, secret) {
			t.Errorf("UserMessage for %q leaked the cause: %q", base.Kind, msg)
		}
	}
}
