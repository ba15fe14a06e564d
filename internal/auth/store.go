package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"ytpub/internal/services"
)

// TokenStore persists OAuth tokens as JSON with owner-only permissions.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store rooted at the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load reads the stored token. A missing file is a configuration error
// directing the operator to run the login flow.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "auth", "load token",
				fmt.Sprintf("no token at %s, run 'ytpub auth login'", s.path), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "auth", "load token", s.path, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse token", s.path, err)
	}
	return &token, nil
}

// Save writes the token atomically with 0600 permissions.
func (s *TokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return services.Wrap(services.ErrValidation, "auth", "save token", "nil token", nil)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "auth", "encode token", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return services.Wrap(services.ErrConfiguration, "auth", "create token directory", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return services.Wrap(services.ErrConfiguration, "auth", "write token", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return services.Wrap(services.ErrConfiguration, "auth", "replace token", s.path, err)
	}
	return nil
}
