// Package igdb implements the metadata resolver backed by the IGDB API.
//
// IGDB queries are Apicalypse bodies POSTed to per-entity endpoints and
// authenticated with a Twitch OAuth bearer token plus a Client-ID header.
package igdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/rocade/rocade/internal/domain"
)

const (
	defaultBaseURL = "https://api.igdb.com/v4"
	defaultTimeout = 30 * time.Second

	// chunkSize is the observed batch limit of the IGDB API.
	chunkSize = 500

	// requestsPerSecond is IGDB's documented rate limit.
	requestsPerSecond = 4

	// gameFields is the field selection for /games queries: all scalar
	// fields plus the nested genre, artwork, cover, and company data needed
	// to build a full record in one round trip.
	gameFields = "fields *, genres.name, artworks.image_id, cover.image_id, involved_companies.company.*;"
)

// Client implements domain.Resolver against the IGDB API.
//
// The cached OAuth token inside the provider is mutable shared state;
// callers must serialize concurrent resolver calls.
type Client struct {
	baseURL    string
	tokens     domain.TokenProvider
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new IGDB API client. The clientID must match the
// OAuth application the token provider exchanges credentials for.
func NewClient(tokens domain.TokenProvider, clientID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  defaultBaseURL,
		tokens:   tokens,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  logger,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// ResolveOne resolves a single Steam App ID to a full catalog record.
// Returns domain.ErrGameNotFound when IGDB has no linked entry.
func (c *Client) ResolveOne(ctx context.Context, appID uint64) (*domain.CatalogGame, error) {
	external, err := c.lookupExternalGame(ctx, appID)
	if err != nil {
		return nil, err
	}

	info, err := c.fetchGameInfo(ctx, external.Game)
	if err != nil {
		return nil, err
	}

	storeID := fmt.Sprintf("%d", appID)
	game := mapGame(*info, &storeID)

	return &game, nil
}

// ResolveBatch resolves a batch of Steam App IDs to full catalog records.
//
// IDs are split into chunks of at most 500. Each chunk costs two requests:
// one external-games lookup resolving App IDs to IGDB game IDs, and one
// games query fetching the full records. App IDs with no IGDB entry are
// silently omitted; any failing chunk fails the whole batch.
func (c *Client) ResolveBatch(ctx context.Context, appIDs []uint64) ([]domain.CatalogGame, error) {
	var games []domain.CatalogGame

	for start := 0; start < len(appIDs); start += chunkSize {
		end := min(start+chunkSize, len(appIDs))

		chunk, err := c.resolveChunk(ctx, appIDs[start:end])
		if err != nil {
			return nil, err
		}
		games = append(games, chunk...)
	}

	c.logger.Debug("resolved batch", "requested", len(appIDs), "resolved", len(games))

	return games, nil
}

// resolveChunk resolves one chunk of at most chunkSize App IDs.
func (c *Client) resolveChunk(ctx context.Context, appIDs []uint64) ([]domain.CatalogGame, error) {
	externals, err := c.lookupExternalGames(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	if len(externals) == 0 {
		return nil, nil
	}

	// IGDB game ID -> Steam App ID, for attaching store IDs to results
	storeIDs := make(map[uint64]string, len(externals))
	catalogIDs := make([]uint64, 0, len(externals))
	for _, ext := range externals {
		storeIDs[ext.Game] = ext.UID
		catalogIDs = append(catalogIDs, ext.Game)
	}

	infos, err := c.fetchGameInfos(ctx, catalogIDs)
	if err != nil {
		return nil, err
	}

	games := make([]domain.CatalogGame, 0, len(infos))
	for _, info := range infos {
		var storeID *string
		if uid, ok := storeIDs[info.ID]; ok {
			storeID = &uid
		}
		games = append(games, mapGame(info, storeID))
	}

	return games, nil
}

// lookupExternalGames resolves a batch of Steam App IDs to external-game
// records via /external_games, filtering on external_game_source = 1
// (Steam). App IDs with no match are absent from the result.
func (c *Client) lookupExternalGames(ctx context.Context, appIDs []uint64) ([]igdbExternalGame, error) {
	uids := make([]string, 0, len(appIDs))
	for _, id := range appIDs {
		uids = append(uids, fmt.Sprintf("%q", fmt.Sprintf("%d", id)))
	}

	query := fmt.Sprintf("fields *; where external_game_source = 1 & uid = (%s); limit %d;",
		strings.Join(uids, ","), len(appIDs))

	body, err := c.doRequest(ctx, "/external_games", query)
	if err != nil {
		return nil, err
	}

	var parsed []igdbExternalGame
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse external games: %w", err)
	}

	return parsed, nil
}

// lookupExternalGame resolves a single Steam App ID via its store URL.
// Returns domain.ErrGameNotFound when no entry is linked.
func (c *Client) lookupExternalGame(ctx context.Context, appID uint64) (*igdbExternalGame, error) {
	query := fmt.Sprintf(
		"fields *; where external_game_source = 1 & url = \"https://store.steampowered.com/app/%d\"; limit 1;",
		appID)

	body, err := c.doRequest(ctx, "/external_games", query)
	if err != nil {
		return nil, err
	}

	var parsed []igdbExternalGame
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse external games: %w", err)
	}
	if len(parsed) == 0 {
		return nil, domain.ErrGameNotFound
	}

	return &parsed[len(parsed)-1], nil
}

// fetchGameInfos fetches full game records for a batch of IGDB game IDs.
func (c *Client) fetchGameInfos(ctx context.Context, catalogIDs []uint64) ([]igdbGameInfo, error) {
	ids := make([]string, 0, len(catalogIDs))
	for _, id := range catalogIDs {
		ids = append(ids, fmt.Sprintf("%d", id))
	}

	query := fmt.Sprintf("%s where id = (%s); limit %d;",
		gameFields, strings.Join(ids, ","), len(catalogIDs))

	body, err := c.doRequest(ctx, "/games", query)
	if err != nil {
		return nil, err
	}

	var parsed []igdbGameInfo
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse games: %w", err)
	}

	return parsed, nil
}

// fetchGameInfo fetches the full game record for a single IGDB game ID.
// Returns domain.ErrGameNotFound when no game with that ID exists.
func (c *Client) fetchGameInfo(ctx context.Context, catalogID uint64) (*igdbGameInfo, error) {
	query := fmt.Sprintf("%s where id = %d; limit 1;", gameFields, catalogID)

	body, err := c.doRequest(ctx, "/games", query)
	if err != nil {
		return nil, err
	}

	var parsed []igdbGameInfo
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse games: %w", err)
	}
	if len(parsed) == 0 {
		return nil, domain.ErrGameNotFound
	}

	return &parsed[len(parsed)-1], nil
}

// doRequest POSTs an Apicalypse query to an IGDB endpoint.
//
// A bearer token is attached to every call. If the response is 401, the
// token is refreshed exactly once and the request retried with the new
// token; a second 401 surfaces as domain.ErrAuthFailed. Token fetch
// failures propagate without retry.
func (c *Client) doRequest(ctx context.Context, endpoint, query string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, endpoint, query, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Debug("igdb token rejected, refreshing", "endpoint", endpoint)

		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, endpoint, query, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("igdb request unauthorized after token refresh: %w", domain.ErrAuthFailed)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("igdb request error", "endpoint", endpoint, "status", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// send performs one rate-limited POST with the given bearer token.
func (c *Client) send(ctx context.Context, endpoint, query, token string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("igdb request", "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("igdb request failed", "error", err)
		return nil, domain.ErrServerOffline
	}

	return resp, nil
}
