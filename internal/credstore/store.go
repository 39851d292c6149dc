// Package credstore owns the persisted credential file. It is the only
// component that reads or writes the file, and every "am I logged in" query
// is answered from its contents alone; secrets supplied through the ambient
// process environment never count as a persisted login.
package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// TokenData holds the OAuth token material obtained from the identity
// provider, together with the identity claims extracted at login time.
type TokenData struct {
	// IDToken is the JWT ID token containing user claims.
	IDToken string `json:"id_token"`
	// AccessToken is the OAuth2 access token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token"`
	// AccountID is the provider-side account identifier.
	AccountID string `json:"account_id,omitempty"`
	// Email is the account email address.
	Email string `json:"email,omitempty"`
	// PlanType is the subscription plan reported in the ID token.
	PlanType string `json:"plan_type,omitempty"`
	// Expire is the timestamp when the current access token expires.
	Expire string `json:"expired"`
}

// Credential is the persisted auth.json record.
type Credential struct {
	// APIKey is an optional long-lived key; the OAuth login flow leaves it empty.
	APIKey string `json:"api_key,omitempty"`
	// Tokens holds the OAuth tokens from the authentication flow.
	Tokens *TokenData `json:"tokens,omitempty"`
	// LastRefresh is the timestamp of the last token write.
	LastRefresh string `json:"last_refresh"`
}

// Store reads and writes the credential file at a fixed per-user location
// with permissions restricted to the owning user.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a credential file is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Read loads the persisted credential. It returns (nil, nil) when no file
// exists.
func (s *Store) Read() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("credstore: read %s: %w", s.path, err)
	}

	var cred Credential
	if err = json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("credstore: parse %s: %w", s.path, err)
	}
	return &cred, nil
}

// Write persists the credential atomically: the record is written to a
// temporary file in the same directory and renamed over the target, so a
// crash mid-write never leaves a truncated file. The file is created with
// mode 0600 and the parent directory with 0700, excluding group and other
// principals entirely.
func (s *Store) Write(cred *Credential) error {
	if cred == nil {
		return fmt.Errorf("credstore: credential is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credstore: create dir failed: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("credstore: marshal failed: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".auth-*.json")
	if err != nil {
		return fmt.Errorf("credstore: create temp file failed: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err = tmp.Chmod(0o600); err != nil {
		cleanup()
		return fmt.Errorf("credstore: chmod temp file failed: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("credstore: write temp file failed: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("credstore: sync temp file failed: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credstore: close temp file failed: %w", err)
	}

	if err = os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credstore: rename failed: %w", err)
	}

	log.Debugf("credentials saved to %s", filepath.Clean(s.path))
	return nil
}

// Erase removes the credential file. Erasing an already-absent file is not
// an error.
func (s *Store) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("credstore: delete failed: %w", err)
	}
	return nil
}
