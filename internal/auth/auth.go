// Package auth manages YouTube OAuth credentials: the client secret file
// from the Google Cloud console, the cached refresh token, and construction
// of authenticated HTTP clients that persist refreshed tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"ytpub/internal/services"
)

// Scopes required for uploads, playlist reads, and caption downloads.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

// Manual redirect used by the paste-the-code login flow.
const redirectOOB = "urn:ietf:wg:oauth:2.0:oob"

type clientSecretFile struct {
	Installed *clientSecretEntry `json:"installed"`
	Web       *clientSecretEntry `json:"web"`
}

type clientSecretEntry struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// LoadOAuthConfig parses a client secret file into an oauth2 config.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "read client secret", path, err)
	}

	var file clientSecretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse client secret", path, err)
	}

	entry := file.Installed
	if entry == nil {
		entry = file.Web
	}
	if entry == nil || strings.TrimSpace(entry.ClientID) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse client secret",
			fmt.Sprintf("%s has no installed or web credentials", path), nil)
	}

	redirect := redirectOOB
	if len(entry.RedirectURIs) > 0 {
		redirect = entry.RedirectURIs[0]
	}

	return &oauth2.Config{
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  valueOr(entry.AuthURI, "https://accounts.google.com/o/oauth2/auth"),
			TokenURL: valueOr(entry.TokenURI, "https://oauth2.googleapis.com/token"),
		},
	}, nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// Client returns an authenticated HTTP client backed by the stored token.
// Refreshed tokens are written back to the store so long-running daemons
// survive access token expiry.
func Client(ctx context.Context, secretPath string, store *TokenStore) (*http.Client, error) {
	oauthCfg, err := LoadOAuthConfig(secretPath)
	if err != nil {
		return nil, err
	}
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	source := &savingTokenSource{
		store: store,
		base:  oauthCfg.TokenSource(ctx, token),
		last:  token,
	}
	return oauth2.NewClient(ctx, source), nil
}

// AuthCodeURL builds the consent URL for the manual login flow.
func AuthCodeURL(oauthCfg *oauth2.Config) string {
	return oauthCfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and persists it.
func Exchange(ctx context.Context, oauthCfg *oauth2.Config, store *TokenStore, code string) error {
	token, err := oauthCfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "auth", "exchange code", "authorization code rejected", err)
	}
	return store.Save(token)
}

type savingTokenSource struct {
	store *TokenStore
	base  oauth2.TokenSource
	last  *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := s.store.Save(token); err != nil {
			return nil, err
		}
		s.last = token
	}
	return token, nil
}
