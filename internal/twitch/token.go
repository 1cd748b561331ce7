// Package twitch implements the OAuth client-credentials flow used to
// authenticate against the IGDB API.
package twitch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/rocade/rocade/internal/domain"
)

const (
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultTimeout  = 30 * time.Second
)

// Client implements domain.TokenProvider.
//
// The access token is cached in memory only, never persisted. The token is
// owned state guarded by a mutex; Token and Refresh are safe for
// concurrent use.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a new Twitch OAuth client.
func NewClient(clientID, clientSecret string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetTokenURL overrides the token endpoint. Used by tests.
func (c *Client) SetTokenURL(tokenURL string) {
	c.tokenURL = tokenURL
}

// ClientID returns the configured OAuth client ID. IGDB requires it as a
// header on every request alongside the bearer token.
func (c *Client) ClientID() string {
	return c.clientID
}

// Token returns the cached access token, performing a credential exchange
// first if no token is cached yet.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.accessToken
	c.mu.Unlock()

	if cached != "" {
		return cached, nil
	}

	return c.Refresh(ctx)
}

// Refresh always performs a live credential exchange and caches the result.
// Exchange failures propagate immediately; there is no retry.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("client_id", c.clientID)
	query.Set("client_secret", c.clientSecret)
	query.Set("grant_type", "client_credentials")

	reqURL := fmt.Sprintf("%s?%s", c.tokenURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("exchanging twitch credentials")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("twitch token exchange failed", "error", err)
		return "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("twitch token exchange error", "status", resp.StatusCode)
		return "", fmt.Errorf("token exchange failed: %w", domain.ErrAuthFailed)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = parsed.AccessToken
	c.mu.Unlock()

	return parsed.AccessToken, nil
}
