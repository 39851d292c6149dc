package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codelane/codelane/internal/config"
	"github.com/codelane/codelane/internal/util"
	log "github.com/sirupsen/logrus"
)

// OAuth configuration constants for the codelane identity provider. The
// authorize/token endpoint pair is fixed; no other provider is supported.
const (
	AuthURL     = "https://auth.codelane.dev/oauth/authorize"
	TokenURL    = "https://auth.codelane.dev/oauth/token"
	ClientID    = "app_KJx29DmVq4hPZnWb3tRfYuLo"
	RedirectURI = "http://localhost:1455/auth/callback"
	Scope       = "openid email profile offline_access"
)

// ErrMalformedResponse indicates the token endpoint returned 2xx but the body
// could not be parsed into the expected token shape.
var ErrMalformedResponse = errors.New("chatgpt: malformed token response")

// StatusError reports a non-2xx response from the token endpoint. The raw
// body is intentionally not retained on the error to keep it out of normal
// output.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatgpt: token endpoint returned status %d", e.StatusCode)
}

// TokenResponse holds the outcome of a successful authorization-code
// exchange. It is transient: the login flow immediately converts it into a
// persisted credential and discards it.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	// Expire is the RFC3339 timestamp at which the access token expires.
	Expire string
	// Email and PlanType are identity claims parsed from the ID token.
	// Either may be empty; absence is not an error.
	Email    string
	PlanType string
	// AccountID is the provider-side account identifier, when present.
	AccountID string
}

// AuthService performs the OAuth2 exchange against the fixed provider
// endpoints. It manages the HTTP client and provides methods for generating
// the authorize URL and exchanging authorization codes for tokens.
type AuthService struct {
	httpClient *http.Client

	// tokenURL is overridable for tests; production code always talks to
	// TokenURL.
	tokenURL string
}

// NewAuthService creates a new AuthService instance with an HTTP client
// honoring the proxy settings from the provided configuration.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		httpClient: util.SetProxy(cfg, &http.Client{Timeout: 60 * time.Second}),
		tokenURL:   TokenURL,
	}
}

// BuildAuthorizeURL constructs the authorization URL carrying the client id,
// redirect target, scope, PKCE challenge, and anti-forgery state. The
// parameter set is built once per attempt and never mutated.
func BuildAuthorizeURL(state string, pkceCodes *PKCECodes) (string, error) {
	if pkceCodes == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}
	if state == "" {
		return "", fmt.Errorf("state is required")
	}

	params := url.Values{
		"client_id":             {ClientID},
		"response_type":         {"code"},
		"redirect_uri":          {RedirectURI},
		"scope":                 {Scope},
		"state":                 {state},
		"code_challenge":        {pkceCodes.CodeChallenge},
		"code_challenge_method": {ChallengeMethod},
	}

	return fmt.Sprintf("%s?%s", AuthURL, params.Encode()), nil
}

// ExchangeCode exchanges an authorization code for tokens using the PKCE
// verifier. It validates the response shape before trusting any field and
// tolerates missing identity claims.
func (o *AuthService) ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	if verifier == "" {
		return nil, fmt.Errorf("PKCE verifier is required for token exchange")
	}

	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {ClientID},
		"code":          {code},
		"redirect_uri":  {RedirectURI},
		"code_verifier": {verifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Debugf("token exchange rejected with status %d", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err = json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	}

	result := &TokenResponse{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		IDToken:      tokenResp.IDToken,
		Expire:       time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).Format(time.RFC3339),
	}

	if tokenResp.IDToken != "" {
		claims, errClaims := ParseIDTokenClaims(tokenResp.IDToken)
		if errClaims != nil {
			log.Warnf("failed to parse ID token claims: %v", errClaims)
		} else {
			result.Email = claims.Email
			result.PlanType = claims.PlanType
			result.AccountID = claims.AccountID
		}
	}

	return result, nil
}
