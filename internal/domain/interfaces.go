package domain

import "context"

// Storefront provides access to the user's owned games on Steam.
type Storefront interface {
	// GetOwnedGames returns every game owned by the configured profile
	GetOwnedGames(ctx context.Context) ([]OwnedGame, error)
}

// Resolver resolves Steam App IDs to full catalog metadata records.
//
// Implementations cache a mutable auth token; concurrent calls must be
// serialized by the caller.
type Resolver interface {
	// ResolveOne resolves a single Steam App ID.
	// Returns ErrGameNotFound when the catalog has no matching entry.
	ResolveOne(ctx context.Context, appID uint64) (*CatalogGame, error)

	// ResolveBatch resolves a batch of Steam App IDs. IDs with no catalog
	// match are silently omitted from the result.
	ResolveBatch(ctx context.Context, appIDs []uint64) ([]CatalogGame, error)
}

// TokenProvider owns the OAuth client-credentials token lifecycle.
type TokenProvider interface {
	// Token returns the cached access token, or fetches one if none is cached
	Token(ctx context.Context) (string, error)

	// Refresh performs a live credential exchange and caches the new token
	Refresh(ctx context.Context) (string, error)
}

// Mirror maintains the local on-disk copy of remote cover/artwork images.
type Mirror interface {
	// DownloadBatch ensures a local copy of each image. Individual download
	// failures are dropped from the result, never surfaced as an error.
	DownloadBatch(ctx context.Context, category ImageCategory, imageIDs []string) []Downloaded

	// ClearAll wipes the asset cache and recreates the category directories
	ClearAll() error
}

// Store is the durable library storage.
type Store interface {
	// InsertComplete writes a resolved game and all its relations in one
	// transaction, returning the new game's database ID.
	InsertComplete(ctx context.Context, game CatalogGame) (int64, error)

	// Clean deletes every game and all dependent rows
	Clean(ctx context.Context) error

	// ListAll returns all games ordered by name, with relations aggregated
	ListAll(ctx context.Context) ([]Game, error)

	// GetByID returns a single game. Returns ErrGameNotFound when absent.
	GetByID(ctx context.Context, id int64) (*Game, error)

	// GetStoreID returns the Steam App ID linked to a game.
	// Returns ErrNoStoreID when the game has no store entry.
	GetStoreID(ctx context.Context, id int64) (string, error)

	// UpdateCoverPath back-fills the local path of a game's mirrored cover
	UpdateCoverPath(ctx context.Context, gameID int64, localPath string) error

	// UpdateArtworkPaths back-fills local paths for a game's mirrored
	// artworks, keyed by artwork image ID
	UpdateArtworkPaths(ctx context.Context, gameID int64, paths map[string]string) error

	Close() error
}

// InstalledChecker reports install state from the local Steam library.
type InstalledChecker interface {
	// IsInstalled reports whether the game is fully downloaded locally
	IsInstalled(appID string) bool
}

// Installer triggers install/uninstall through the local Steam client.
// The returned error reflects only whether the URL-scheme dispatch itself
// succeeded, not whether the operation completed.
type Installer interface {
	Install(appID string) error
	Uninstall(appID string) error
}
