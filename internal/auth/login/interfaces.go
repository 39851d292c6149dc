package login

import (
	"context"

	"github.com/codelane/codelane/internal/auth/chatgpt"
	"github.com/codelane/codelane/internal/credstore"
)

// HelperResult is the only information that flows out of the login helper
// process: the authorization code and the echoed anti-forgery state. The
// helper never emits tokens or any other field.
type HelperResult struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Launcher runs the platform-specific interactive authorization surface and
// captures exactly one result from it. Implementations must treat the helper
// as a message-passing boundary: one typed result or a distinguished failure,
// never shared state.
type Launcher interface {
	Launch(ctx context.Context, authorizeURL string) (*HelperResult, error)
}

// Exchanger performs the authorization-code-for-token exchange.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, verifier string) (*chatgpt.TokenResponse, error)
}

// CredentialWriter commits the credential produced by a successful login.
type CredentialWriter interface {
	Write(cred *credstore.Credential) error
}
