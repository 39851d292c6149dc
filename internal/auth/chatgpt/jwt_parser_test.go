package chatgpt

import (
	"encoding/base64"
	"testing"
)

func makeToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"RS256"}`)) + "." + enc([]byte(payload)) + "." + enc([]byte("sig"))
}

func TestParseIDTokenClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    Claims
	}{
		{
			"full claims",
			`{"email":"user@example.com","https://api.codelane.dev/auth":{"plan_type":"plus","account_id":"acct_123"}}`,
			Claims{Email: "user@example.com", PlanType: "plus", AccountID: "acct_123"},
		},
		{
			"email only",
			`{"email":"user@example.com"}`,
			Claims{Email: "user@example.com"},
		},
		{
			"no recognized claims",
			`{"sub":"abc"}`,
			Claims{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseIDTokenClaims(makeToken(t, tt.payload))
			if err != nil {
				t.Fatalf("ParseIDTokenClaims() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("ParseIDTokenClaims() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseIDTokenClaimsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"not a jwt", "header-only"},
		{"two parts", "a.b"},
		{"bad payload encoding", "a.!!!.c"},
		{"payload not json", makeToken(t, "not-json")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseIDTokenClaims(tt.token); err == nil {
				t.Error("ParseIDTokenClaims() expected error, got nil")
			}
		})
	}
}
