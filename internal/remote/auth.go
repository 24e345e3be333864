package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenManager obtains OAuth2 client-credentials tokens and caches them until
// shortly before expiry. Safe for concurrent use.
type TokenManager struct {
	httpClient *http.Client
	tokenURL   string
	clientID   string
	secret     string
	audience   string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func NewTokenManager(httpClient *http.Client, tokenURL, clientID, secret, audience string) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		clientID:   clientID,
		secret:     secret,
		audience:   audience,
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is missing or within a minute of expiring.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt.Add(-time.Minute)) {
		return m.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.secret)
	if m.audience != "" {
		form.Set("audience", m.audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewAPIError(resp.StatusCode, fmt.Sprintf("token endpoint: %s", excerpt(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	lifetime := time.Duration(tok.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	m.token = tok.AccessToken
	m.expiresAt = time.Now().Add(lifetime)
	return m.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
