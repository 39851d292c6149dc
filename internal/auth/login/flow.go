// Package login orchestrates a single interactive login attempt: it
// generates the PKCE pair and anti-forgery state, hands the authorize URL to
// the platform helper, validates the returned state, exchanges the
// authorization code for tokens, and commits the result to the credential
// store. Each failure maps to exactly one variant of the closed error
// taxonomy; the flow never retries on its own.
package login

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/codelane/codelane/internal/auth/chatgpt"
	"github.com/codelane/codelane/internal/credstore"
	log "github.com/sirupsen/logrus"
)

// Outcome is the terminal result of a login attempt. Err is nil exactly when
// the attempt succeeded; Email and Plan carry the identity summary when the
// provider included those claims.
type Outcome struct {
	Email string
	Plan  string
	Err   *Error
}

// Succeeded reports whether the attempt completed and credentials were persisted.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Aborted reports whether the attempt ended by user cancellation.
func (o Outcome) Aborted() bool {
	return o.Err != nil && o.Err.Kind == KindAborted
}

// Flow ties together the collaborators of one login attempt. The
// collaborators are injectable so tests can swap the helper and the token
// endpoint without global toggles.
type Flow struct {
	Helper    Launcher
	Exchanger Exchanger
	Store     CredentialWriter

	// HelperTimeout bounds the wait for the interactive helper. Zero means
	// no timeout; expiry is reported as an abort and the helper process is
	// terminated.
	HelperTimeout time.Duration

	// mu serializes attempts: a Flow never runs two helpers at once.
	mu sync.Mutex
}

// Run executes one login attempt from PKCE generation through credential
// persistence. It blocks for the lifetime of the helper process.
func (f *Flow) Run(ctx context.Context) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	// Init: generate the per-attempt secrets and the immutable authorize URL.
	pkceCodes, err := chatgpt.GeneratePKCECodes()
	if err != nil {
		// Random source starvation is a fatal process error, not a typed
		// login failure.
		log.Fatalf("PKCE generation failed: %v", err)
	}
	state, err := chatgpt.GenerateState()
	if err != nil {
		log.Fatalf("state generation failed: %v", err)
	}

	authorizeURL, err := chatgpt.BuildAuthorizeURL(state, pkceCodes)
	if err != nil {
		log.Fatalf("authorize URL construction failed: %v", err)
	}

	// AwaitingHelper: a blocking wait on a single terminal event.
	helperCtx := ctx
	if f.HelperTimeout > 0 {
		var cancel context.CancelFunc
		helperCtx, cancel = context.WithTimeout(ctx, f.HelperTimeout)
		defer cancel()
	}

	log.Debug("waiting for login helper")
	result, err := f.Helper.Launch(helperCtx, authorizeURL)
	if err != nil {
		return failure(err, ErrAborted)
	}

	// ValidatingState: reject any result whose state differs from ours
	// before the code is ever used. Constant-time comparison, and both the
	// generated and the returned value stay out of the logs.
	if subtle.ConstantTimeCompare([]byte(result.State), []byte(state)) != 1 {
		log.Debug("helper returned a non-matching state")
		return failure(ErrStateMismatch, ErrStateMismatch)
	}

	// ExchangingToken.
	log.Debug("authorization code received; exchanging for tokens")
	tokens, err := f.Exchanger.ExchangeCode(ctx, result.Code, pkceCodes.CodeVerifier)
	if err != nil {
		return failure(classifyExchangeError(err), ErrTokenExchangeFailed)
	}

	// Persisting.
	cred := &credstore.Credential{
		Tokens: &credstore.TokenData{
			IDToken:      tokens.IDToken,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			AccountID:    tokens.AccountID,
			Email:        tokens.Email,
			PlanType:     tokens.PlanType,
			Expire:       tokens.Expire,
		},
		LastRefresh: time.Now().Format(time.RFC3339),
	}
	if err = f.Store.Write(cred); err != nil {
		return failure(WrapError(ErrIO, err), ErrIO)
	}

	log.Debug("login complete; credentials persisted")
	return Outcome{Email: tokens.Email, Plan: tokens.PlanType}
}

// classifyExchangeError maps token-exchange failures onto the taxonomy: a
// provider rejection or malformed body is TokenExchangeFailed, anything else
// at the transport level is Network.
func classifyExchangeError(err error) error {
	if loginErr, ok := AsError(err); ok {
		return loginErr
	}
	var statusErr *chatgpt.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, chatgpt.ErrMalformedResponse) {
		return WrapError(ErrTokenExchangeFailed, err)
	}
	return WrapError(ErrNetwork, err)
}

// failure converts err into a terminal Outcome, wrapping unexpected internal
// errors into the nearest matching kind so nothing outside the taxonomy leaks.
func failure(err error, nearest *Error) Outcome {
	if loginErr, ok := AsError(err); ok {
		return Outcome{Err: loginErr}
	}
	return Outcome{Err: WrapError(nearest, err)}
}
