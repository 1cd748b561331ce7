package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocade/rocade/internal/domain"
)

func TestTokenCaching(t *testing.T) {
	exchanges := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "my-id", r.URL.Query().Get("client_id"))
		assert.Equal(t, "my-secret", r.URL.Query().Get("client_secret"))
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		fmt.Fprintf(w, `{"access_token": "token-%d", "expires_in": 5000000, "token_type": "bearer"}`, exchanges)
	}))
	defer server.Close()

	client := NewClient("my-id", "my-secret", nil)
	client.SetTokenURL(server.URL)

	ctx := context.Background()

	// First call exchanges credentials
	token, err := client.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, exchanges)

	// Second call serves from cache
	token, err = client.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, exchanges)

	// Refresh always exchanges and replaces the cached token
	token, err = client.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, exchanges)

	token, err = client.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, exchanges)
}

func TestRefreshExchangeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("my-id", "bad-secret", nil)
	client.SetTokenURL(server.URL)

	_, err := client.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailed))
}
