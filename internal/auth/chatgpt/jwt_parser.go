package chatgpt

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Claims holds the subset of ID-token claims the CLI cares about. The
// provider does not commit to a fixed schema beyond email and plan being
// commonly present, so every field is optional.
type Claims struct {
	// Email is the account email address, when the provider includes it.
	Email string
	// PlanType is the subscription plan (e.g. "plus", "team"), when present.
	PlanType string
	// AccountID is the provider-side account identifier, when present.
	AccountID string
}

// ParseIDTokenClaims parses a JWT ID token and extracts its claims without
// performing cryptographic signature verification. This is used to introspect
// a token that was just handed to us by the token endpoint over TLS; missing
// claims are not an error.
func ParseIDTokenClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT token format: expected 3 parts, got %d", len(parts))
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT claims: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("JWT claims are not valid JSON")
	}

	body := gjson.ParseBytes(payload)
	return &Claims{
		Email:     body.Get("email").String(),
		PlanType:  body.Get(`https://api\.codelane\.dev/auth.plan_type`).String(),
		AccountID: body.Get(`https://api\.codelane\.dev/auth.account_id`).String(),
	}, nil
}

// base64URLDecode decodes a base64url string, adding padding if necessary.
// JWTs use the URL-safe alphabet and omit padding.
func base64URLDecode(data string) ([]byte, error) {
	switch len(data) % 4 {
	case 2:
		data += "=="
	case 3:
		data += "="
	}
	return base64.URLEncoding.DecodeString(data)
}
