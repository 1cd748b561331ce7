package steam

import "github.com/rocade/rocade/internal/domain"

// mapOwnedGames converts Steam API game entries to domain owned games.
func mapOwnedGames(games []ownedGame) []domain.OwnedGame {
	result := make([]domain.OwnedGame, 0, len(games))
	for _, g := range games {
		result = append(result, domain.OwnedGame{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeForever: g.PlaytimeForever,
			Playtime2Weeks:  g.Playtime2Weeks,
		})
	}
	return result
}
