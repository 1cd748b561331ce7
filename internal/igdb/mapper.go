package igdb

import "github.com/rocade/rocade/internal/domain"

// mapGame converts a raw IGDB game record into a domain catalog game,
// attaching the Steam store ID resolved from the external-games lookup.
func mapGame(info igdbGameInfo, storeID *string) domain.CatalogGame {
	developers, publishers := splitCompanies(info.InvolvedCompanies, info.ID)

	game := domain.CatalogGame{
		CatalogID:   info.ID,
		StoreID:     storeID,
		Name:        info.Name,
		Summary:     info.Summary,
		Storyline:   info.Storyline,
		ReleaseDate: info.FirstReleaseDate,
		Developers:  developers,
		Publishers:  publishers,
	}

	for _, genre := range info.Genres {
		game.Genres = append(game.Genres, genre.Name)
	}

	if info.Cover != nil {
		coverID := info.Cover.ImageID
		game.CoverID = &coverID
	}

	for _, artwork := range info.Artworks {
		game.ArtworkIDs = append(game.ArtworkIDs, artwork.ImageID)
	}

	return game
}

// splitCompanies separates involved companies into developers and
// publishers by checking whether gameID appears in each company's role
// lists. A company can hold both roles; a company with neither list
// containing gameID is dropped.
func splitCompanies(involved []igdbInvolvedCompany, gameID uint64) (developers, publishers []domain.Company) {
	for _, entry := range involved {
		company := domain.Company{ID: entry.Company.ID, Name: entry.Company.Name}

		for _, id := range entry.Company.Developed {
			if id == gameID {
				developers = append(developers, company)
				break
			}
		}

		for _, id := range entry.Company.Published {
			if id == gameID {
				publishers = append(publishers, company)
				break
			}
		}
	}

	return developers, publishers
}
