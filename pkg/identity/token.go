// Package identity acquires bearer tokens for the external stock and
// purchasing services via the client-credentials grant.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TokenSource yields a valid bearer token, refreshing it as needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds client-credentials configuration.
type Config struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	Scopes        string
	Timeout       time.Duration
}

// ClientCredentialsSource exchanges client credentials for access tokens and
// caches the result process-wide. The cached token is refreshed when it is
// within the safety margin of expiry; concurrent refreshes collapse into a
// single exchange.
type ClientCredentialsSource struct {
	config     Config
	httpClient *http.Client

	group singleflight.Group

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// refreshMargin is how long before actual expiry a token is considered stale.
const refreshMargin = 30 * time.Second

// NewClientCredentialsSource creates a token source.
func NewClientCredentialsSource(cfg Config) *ClientCredentialsSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ClientCredentialsSource{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Token returns the cached token or performs a single-flight exchange.
func (s *ClientCredentialsSource) Token(ctx context.Context) (string, error) {
	if token, ok := s.cached(); ok {
		return token, nil
	}

	result, err, _ := s.group.Do("token", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited.
		if token, ok := s.cached(); ok {
			return token, nil
		}
		return s.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *ClientCredentialsSource) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" && time.Now().Add(refreshMargin).Before(s.expiresAt) {
		return s.token, true
	}
	return "", false
}

// tokenResponse is the token endpoint's JSON body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

func (s *ClientCredentialsSource) exchange(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.config.ClientID)
	form.Set("client_secret", s.config.ClientSecret)
	if s.config.Scopes != "" {
		form.Set("scope", s.config.Scopes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	s.mu.Lock()
	s.token = body.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	s.mu.Unlock()

	return body.AccessToken, nil
}

// StaticTokenSource returns a fixed token. Useful for tests and for
// collaborators that do not require authentication.
type StaticTokenSource struct {
	Value string
}

// Token implements TokenSource.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return s.Value, nil
}
