// Package chatgpt implements the OAuth2 authentication flow against the
// codelane identity provider. It handles PKCE (Proof Key for Code Exchange)
// code generation, authorize-URL construction, and the authorization-code
// token exchange.
package chatgpt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// PKCECodes holds the verification codes for the OAuth2 PKCE flow.
// PKCE is an extension to the authorization code flow that binds the
// authorization code to a locally held secret, preventing code interception
// and injection attacks.
type PKCECodes struct {
	// CodeVerifier is the cryptographically random string used to correlate
	// the authorization request to the token request.
	CodeVerifier string `json:"code_verifier"`
	// CodeChallenge is the SHA256 hash of the code verifier, base64url-encoded.
	CodeChallenge string `json:"code_challenge"`
}

// ChallengeMethod is the only challenge transformation the provider accepts.
const ChallengeMethod = "S256"

// GeneratePKCECodes generates a new pair of PKCE codes. It creates a
// cryptographically random code verifier and its corresponding SHA256 code
// challenge, as specified in RFC 7636.
func GeneratePKCECodes() (*PKCECodes, error) {
	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCECodes{
		CodeVerifier:  codeVerifier,
		CodeChallenge: generateCodeChallenge(codeVerifier),
	}, nil
}

// GenerateState generates a cryptographically secure random state parameter
// used to detect cross-site request forgery against the authorization
// callback. Each login attempt gets a fresh value.
func GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// generateCodeVerifier creates a cryptographically secure random string to be
// used as the code verifier in the PKCE flow.
func generateCodeVerifier() (string, error) {
	// 96 random bytes produce 128 base64 characters, the RFC 7636 maximum.
	bytes := make([]byte, 96)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}

// generateCodeChallenge creates a code challenge from a given code verifier
// by taking the SHA256 hash of the verifier and base64url-encoding the result.
func generateCodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(hash[:])
}
