package igdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocade/rocade/internal/domain"
)

// fakeTokens is an in-memory domain.TokenProvider that counts refreshes.
type fakeTokens struct {
	current   string
	refreshes atomic.Int32
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	if f.current == "" {
		return f.Refresh(ctx)
	}
	return f.current, nil
}

func (f *fakeTokens) Refresh(ctx context.Context) (string, error) {
	n := f.refreshes.Add(1)
	f.current = fmt.Sprintf("token-%d", n)
	return f.current, nil
}

const externalGamesBody = `[
	{"id": 1, "game": 100, "uid": "620"},
	{"id": 2, "game": 200, "uid": "70"}
]`

const gamesBody = `[
	{
		"id": 100,
		"name": "Portal 2",
		"summary": "A puzzle game.",
		"first_release_date": 1303171200,
		"cover": {"image_id": "co1rs4"},
		"artworks": [{"image_id": "ar5ik"}, {"image_id": "ar5il"}],
		"genres": [{"name": "Puzzle"}, {"name": "Platform"}],
		"involved_companies": [
			{"company": {"id": 1, "name": "Valve", "developed": [100, 300], "published": [100]}},
			{"company": {"id": 2, "name": "Sierra", "published": [100]}},
			{"company": {"id": 3, "name": "Other", "developed": [999]}}
		]
	},
	{
		"id": 200,
		"name": "Half-Life"
	}
]`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeTokens, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &fakeTokens{}
	client := NewClient(tokens, "my-client-id", nil)
	client.SetBaseURL(server.URL)

	return client, tokens, server
}

func TestResolveBatch(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "my-client-id", r.Header.Get("Client-ID"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/external_games":
			fmt.Fprint(w, externalGamesBody)
		case "/games":
			fmt.Fprint(w, gamesBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	games, err := client.ResolveBatch(context.Background(), []uint64{620, 70})
	require.NoError(t, err)
	require.Len(t, games, 2)

	portal := games[0]
	assert.Equal(t, uint64(100), portal.CatalogID)
	assert.Equal(t, "Portal 2", portal.Name)
	require.NotNil(t, portal.StoreID)
	assert.Equal(t, "620", *portal.StoreID)
	require.NotNil(t, portal.Summary)
	assert.Equal(t, "A puzzle game.", *portal.Summary)
	require.NotNil(t, portal.ReleaseDate)
	assert.Equal(t, int64(1303171200), *portal.ReleaseDate)
	require.NotNil(t, portal.CoverID)
	assert.Equal(t, "co1rs4", *portal.CoverID)
	assert.Equal(t, []string{"ar5ik", "ar5il"}, portal.ArtworkIDs)
	assert.Equal(t, []string{"Puzzle", "Platform"}, portal.Genres)

	// Valve developed and published; Sierra only published; Other is
	// involved but holds neither role for this game
	require.Len(t, portal.Developers, 1)
	assert.Equal(t, "Valve", portal.Developers[0].Name)
	require.Len(t, portal.Publishers, 2)
	assert.Equal(t, "Valve", portal.Publishers[0].Name)
	assert.Equal(t, "Sierra", portal.Publishers[1].Name)

	halflife := games[1]
	require.NotNil(t, halflife.StoreID)
	assert.Equal(t, "70", *halflife.StoreID)
	assert.Nil(t, halflife.CoverID)
	assert.Empty(t, halflife.Genres)
}

func TestResolveBatchDropsUnmatched(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/external_games":
			// Only one of the two requested IDs has a catalog entry
			fmt.Fprint(w, `[{"id": 1, "game": 100, "uid": "620"}]`)
		case "/games":
			fmt.Fprint(w, `[{"id": 100, "name": "Portal 2"}]`)
		}
	}))

	games, err := client.ResolveBatch(context.Background(), []uint64{620, 424242})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Portal 2", games[0].Name)
}

func TestResolveBatchEmptyLookup(t *testing.T) {
	var gamesCalls atomic.Int32
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/external_games":
			fmt.Fprint(w, `[]`)
		case "/games":
			gamesCalls.Add(1)
			fmt.Fprint(w, `[]`)
		}
	}))

	games, err := client.ResolveBatch(context.Background(), []uint64{424242})
	require.NoError(t, err)
	assert.Empty(t, games)

	// No catalog IDs resolved means no full-info request at all
	assert.Equal(t, int32(0), gamesCalls.Load())
}

func TestRetryOnceOn401(t *testing.T) {
	var calls atomic.Int32
	client, tokens, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
		default:
			// Retried request must carry the freshly refreshed token
			assert.Equal(t, "Bearer token-2", r.Header.Get("Authorization"))
			switch r.URL.Path {
			case "/external_games":
				fmt.Fprint(w, `[{"id": 1, "game": 100, "uid": "620"}]`)
			case "/games":
				fmt.Fprint(w, `[{"id": 100, "name": "Portal 2"}]`)
			}
		}
	}))

	games, err := client.ResolveBatch(context.Background(), []uint64{620})
	require.NoError(t, err)
	require.Len(t, games, 1)

	// One refresh for the initial lazy fetch, one forced by the 401
	assert.Equal(t, int32(2), tokens.refreshes.Load())
}

func TestSecondUnauthorizedFails(t *testing.T) {
	var calls atomic.Int32
	client, tokens, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ResolveBatch(context.Background(), []uint64{620})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailed))

	// Exactly one retry: two requests total, and only the single forced
	// refresh beyond the initial lazy fetch
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(2), tokens.refreshes.Load())
}

func TestResolveBatchChunks(t *testing.T) {
	var mu sync.Mutex
	var lookupBodies, gamesBodies []string

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()

		switch r.URL.Path {
		case "/external_games":
			lookupBodies = append(lookupBodies, string(body))
			// One match per chunk: App ID 1 in the first, 501 in the second
			if len(lookupBodies) == 1 {
				fmt.Fprint(w, `[{"id": 1, "game": 100, "uid": "1"}]`)
			} else {
				fmt.Fprint(w, `[{"id": 2, "game": 200, "uid": "501"}]`)
			}
		case "/games":
			gamesBodies = append(gamesBodies, string(body))
			if len(gamesBodies) == 1 {
				fmt.Fprint(w, `[{"id": 100, "name": "Portal 2"}]`)
			} else {
				fmt.Fprint(w, `[{"id": 200, "name": "Half-Life"}]`)
			}
		}
	}))

	appIDs := make([]uint64, 501)
	for i := range appIDs {
		appIDs[i] = uint64(i + 1)
	}

	games, err := client.ResolveBatch(context.Background(), appIDs)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Portal 2", games[0].Name)
	assert.Equal(t, "Half-Life", games[1].Name)

	// 501 IDs split into a full chunk of 500 and a remainder of 1, each
	// costing one lookup and one games request
	require.Len(t, lookupBodies, 2)
	require.Len(t, gamesBodies, 2)

	first, second := lookupBodies[0], lookupBodies[1]
	assert.Contains(t, first, "limit 500;")
	assert.Contains(t, first, `"1"`)
	assert.Contains(t, first, `"500"`)
	assert.NotContains(t, first, `"501"`)
	assert.Equal(t, 500, strings.Count(first, `","`)+1)

	assert.Contains(t, second, "limit 1;")
	assert.Contains(t, second, `"501"`)
	assert.Equal(t, 1, strings.Count(second, `","`)+1)

	assert.Contains(t, gamesBodies[0], "where id = (100)")
	assert.Contains(t, gamesBodies[1], "where id = (200)")
}

func TestResolveOne(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/external_games":
			fmt.Fprint(w, `[{"id": 1, "game": 100, "uid": "620"}]`)
		case "/games":
			fmt.Fprint(w, `[{"id": 100, "name": "Portal 2"}]`)
		}
	}))

	game, err := client.ResolveOne(context.Background(), 620)
	require.NoError(t, err)
	assert.Equal(t, "Portal 2", game.Name)
	require.NotNil(t, game.StoreID)
	assert.Equal(t, "620", *game.StoreID)
}

func TestResolveOneNotFound(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	_, err := client.ResolveOne(context.Background(), 424242)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGameNotFound))
}

func TestResolveBatchTransportErrorAborts(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ResolveBatch(context.Background(), []uint64{620})
	require.Error(t, err)
}
