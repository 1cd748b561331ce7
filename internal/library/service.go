// Package library orchestrates the refresh pipeline and the query side of
// the local game library.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocade/rocade/internal/domain"
	"github.com/rocade/rocade/internal/search"
)

// Service wires the storefront, resolver, store, mirror, and local client
// into the library use cases.
type Service struct {
	storefront domain.Storefront
	resolver   domain.Resolver
	store      domain.Store
	mirror     domain.Mirror
	local      domain.InstalledChecker
	installer  domain.Installer
	logger     *slog.Logger

	// refreshMu serializes whole refresh cycles. The resolver's token
	// state and the clean-then-repopulate sequence both assume a single
	// refresh in flight.
	refreshMu sync.Mutex
}

// NewService creates a new library service.
func NewService(
	storefront domain.Storefront,
	resolver domain.Resolver,
	store domain.Store,
	mirror domain.Mirror,
	local domain.InstalledChecker,
	installer domain.Installer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storefront: storefront,
		resolver:   resolver,
		store:      store,
		mirror:     mirror,
		local:      local,
		installer:  installer,
		logger:     logger,
	}
}

// Refresh runs one end-to-end library refresh cycle:
//
//  1. fetch the owned-games list from Steam
//  2. resolve catalog metadata for every owned App ID
//  3. wipe the store and the asset cache together
//  4. insert every resolved game, sequentially
//  5. mirror the distinct cover and artwork images
//  6. back-fill the local asset paths of the mirrored images
//
// Failures in steps 1-4 abort the refresh; the store keeps whatever the
// completed per-game transactions already committed (re-running the
// refresh is the recovery path). Steps 5-6 are best-effort per image and
// never abort the refresh.
func (s *Service) Refresh(ctx context.Context) (*domain.RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	owned, err := s.storefront.GetOwnedGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owned games: %w", err)
	}
	s.logger.Info("refresh started", "owned", len(owned))

	appIDs := make([]uint64, 0, len(owned))
	for _, game := range owned {
		appIDs = append(appIDs, game.AppID)
	}

	resolved, err := s.resolver.ResolveBatch(ctx, appIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata: %w", err)
	}

	if err := s.store.Clean(ctx); err != nil {
		return nil, fmt.Errorf("failed to clean library: %w", err)
	}
	if err := s.mirror.ClearAll(); err != nil {
		return nil, fmt.Errorf("failed to clear asset cache: %w", err)
	}

	// gameIDs maps each resolved record (by index) to its storage key
	gameIDs := make([]int64, len(resolved))
	for i, game := range resolved {
		id, err := s.store.InsertComplete(ctx, game)
		if err != nil {
			return nil, fmt.Errorf("failed to insert %q: %w", game.Name, err)
		}
		gameIDs[i] = id
	}

	result := &domain.RefreshResult{
		Owned:    len(owned),
		Resolved: len(resolved),
		Inserted: len(resolved),
	}

	s.mirrorAssets(ctx, resolved, gameIDs, result)

	s.logger.Info("refresh complete",
		"resolved", result.Resolved, "covers", result.Covers, "artworks", result.Artworks)

	return result, nil
}

// mirrorAssets downloads the distinct cover and artwork images referenced
// by the resolved records and back-fills their local paths into the store.
// Everything here is best-effort: a missing image just stays without a
// local path.
func (s *Service) mirrorAssets(ctx context.Context, resolved []domain.CatalogGame, gameIDs []int64, result *domain.RefreshResult) {
	coverIDs := make([]string, 0, len(resolved))
	artworkIDs := make([]string, 0, len(resolved))
	seenCovers := make(map[string]bool)
	seenArtworks := make(map[string]bool)

	for _, game := range resolved {
		if game.CoverID != nil && !seenCovers[*game.CoverID] {
			seenCovers[*game.CoverID] = true
			coverIDs = append(coverIDs, *game.CoverID)
		}
		for _, id := range game.ArtworkIDs {
			if !seenArtworks[id] {
				seenArtworks[id] = true
				artworkIDs = append(artworkIDs, id)
			}
		}
	}

	coverPaths := make(map[string]string)
	for _, d := range s.mirror.DownloadBatch(ctx, domain.ImageCategoryCover, coverIDs) {
		coverPaths[d.ImageID] = d.LocalPath
	}

	artworkPaths := make(map[string]string)
	for _, d := range s.mirror.DownloadBatch(ctx, domain.ImageCategoryArtwork, artworkIDs) {
		artworkPaths[d.ImageID] = d.LocalPath
	}

	result.Covers = len(coverPaths)
	result.Artworks = len(artworkPaths)

	for i, game := range resolved {
		if game.CoverID != nil {
			if path, ok := coverPaths[*game.CoverID]; ok {
				if err := s.store.UpdateCoverPath(ctx, gameIDs[i], path); err != nil {
					s.logger.Warn("failed to back-fill cover path",
						"game", game.Name, "error", err)
				}
			}
		}

		matched := make(map[string]string)
		for _, id := range game.ArtworkIDs {
			if path, ok := artworkPaths[id]; ok {
				matched[id] = path
			}
		}
		if len(matched) > 0 {
			if err := s.store.UpdateArtworkPaths(ctx, gameIDs[i], matched); err != nil {
				s.logger.Warn("failed to back-fill artwork paths",
					"game", game.Name, "error", err)
			}
		}
	}
}

// ListGames returns the stored library, optionally filtered by name.
// Install status is attached to every game that has a store ID.
//
// A filtered list is ordered best match first; the unfiltered list keeps
// the store's alphabetical order.
func (s *Service) ListGames(ctx context.Context, nameFilter string) ([]domain.Game, error) {
	games, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if nameFilter != "" {
		games = search.FilterGames(games, nameFilter)
	}

	for i := range games {
		s.attachInstallStatus(&games[i])
	}

	return games, nil
}

// GetGame returns a single game with its current install status.
func (s *Service) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	game, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.attachInstallStatus(game)

	return game, nil
}

// attachInstallStatus computes IsInstalled from the local Steam library.
// Games without a store ID are reported as not installed.
func (s *Service) attachInstallStatus(game *domain.Game) {
	installed := false
	if game.StoreID != nil {
		installed = s.local.IsInstalled(*game.StoreID)
	}
	game.IsInstalled = &installed
}

// Install triggers installation of a stored game through the local Steam
// client. A nil error means the steam:// dispatch succeeded, not that the
// install completed.
func (s *Service) Install(ctx context.Context, id int64) error {
	storeID, err := s.store.GetStoreID(ctx, id)
	if err != nil {
		return err
	}
	return s.installer.Install(storeID)
}

// Uninstall triggers uninstallation of a stored game through the local
// Steam client.
func (s *Service) Uninstall(ctx context.Context, id int64) error {
	storeID, err := s.store.GetStoreID(ctx, id)
	if err != nil {
		return err
	}
	return s.installer.Uninstall(storeID)
}

// ResolveGame fetches catalog metadata for a single Steam App ID without
// touching the store. Used for ad hoc lookups outside a refresh.
func (s *Service) ResolveGame(ctx context.Context, appID uint64) (*domain.CatalogGame, error) {
	return s.resolver.ResolveOne(ctx, appID)
}
