package domain

import "time"

// ImageCategory selects the CDN size variant and the local cache
// subdirectory for an image download.
type ImageCategory int

const (
	ImageCategoryCover ImageCategory = iota
	ImageCategoryArtwork
)

// Dir returns the asset-cache subdirectory for this category.
func (c ImageCategory) Dir() string {
	if c == ImageCategoryArtwork {
		return "artworks"
	}
	return "covers"
}

// OwnedGame is one entry of the Steam owned-games list. Ephemeral: it is
// the input to metadata resolution and is never persisted.
type OwnedGame struct {
	AppID           uint64 // Steam App ID
	Name            string
	PlaytimeForever *uint64 // Total playtime in minutes
	Playtime2Weeks  *uint64 // Playtime in minutes over the last two weeks
}

// Company is a game company as known to the metadata catalog.
type Company struct {
	ID   int64 // Catalog company ID
	Name string
}

// CatalogGame is a fully resolved metadata record for one game, produced by
// the catalog resolver and consumed by the store and the asset mirror.
//
// StoreID, when present, uniquely identifies the owning Steam game within
// one refresh cycle.
type CatalogGame struct {
	CatalogID   uint64  // Catalog-internal game ID
	StoreID     *string // Steam App ID as a string, if linked
	Name        string
	Summary     *string
	Storyline   *string
	ReleaseDate *int64 // Unix timestamp of the first release
	Genres      []string
	Developers  []Company
	Publishers  []Company
	CoverID     *string
	ArtworkIDs  []string
}

// Game is the persisted game record as surfaced to callers.
//
// IsInstalled is never stored; it is computed at read time from the local
// Steam library and attached by the service layer. Store reads always
// return it nil.
type Game struct {
	ID          int64
	Name        string
	Summary     *string
	Storyline   *string
	StoreID     *string // Steam App ID
	ReleaseDate *int64  // Unix timestamp of the first release
	Genres      []string
	Developers  []string
	Publishers  []string
	Cover       *string // Catalog image ID of the cover
	CoverPath   *string // Local cached cover file, once mirrored
	Artworks    []string
	// ArtworkPaths maps artwork image IDs to local cached files. Only
	// artworks that have been mirrored appear here.
	ArtworkPaths map[string]string
	IsInstalled  *bool
}

// ReleaseYear returns the release year, or 0 when unknown.
func (g Game) ReleaseYear() int {
	if g.ReleaseDate == nil {
		return 0
	}
	return time.Unix(*g.ReleaseDate, 0).UTC().Year()
}

// Downloaded is one successfully mirrored image.
type Downloaded struct {
	ImageID   string
	LocalPath string
}

// RefreshResult summarizes one completed refresh cycle.
type RefreshResult struct {
	Owned    int // Games reported by Steam
	Resolved int // Games matched in the catalog
	Inserted int // Games written to the store
	Covers   int // Cover images mirrored locally
	Artworks int // Artwork images mirrored locally
}
