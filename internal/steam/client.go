package steam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/rocade/rocade/internal/domain"
)

const (
	defaultBaseURL = "https://api.steampowered.com"
	defaultTimeout = 30 * time.Second
	userAgent      = "Rocade/1.0"
)

// Client implements domain.Storefront against the Steam Web API.
type Client struct {
	baseURL    string
	key        string // Steam Web API key
	profileID  string // SteamID64 of the target user profile
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Steam Web API client.
func NewClient(key, profileID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   defaultBaseURL,
		key:       key,
		profileID: profileID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetOwnedGames returns every game owned by the configured Steam profile.
//
// Calls the IPlayerService/GetOwnedGames endpoint with include_appinfo
// enabled so that each entry carries the game name.
func (c *Client) GetOwnedGames(ctx context.Context) ([]domain.OwnedGame, error) {
	query := url.Values{}
	query.Set("key", c.key)
	query.Set("steamid", c.profileID)
	query.Set("include_appinfo", "1")
	query.Set("format", "json")

	reqURL := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v0001?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("steam request", "endpoint", "GetOwnedGames", "profileID", c.profileID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("steam request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("steam request error", "status", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed gameListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	games := mapOwnedGames(parsed.Response.Games)
	c.logger.Debug("fetched owned games", "count", len(games))

	return games, nil
}
