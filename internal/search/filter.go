package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/rocade/rocade/internal/domain"
)

// FilterGames returns the games whose name matches the query, best matches
// first. Membership is decided by MatchName; ordering is a presentation
// concern layered on top.
func FilterGames(games []domain.Game, query string) []domain.Game {
	query = strings.TrimSpace(query)
	if query == "" {
		return games
	}

	type rankedGame struct {
		game  domain.Game
		score int
	}

	var ranked []rankedGame
	for _, game := range games {
		if !MatchName(query, game.Name) {
			continue
		}
		ranked = append(ranked, rankedGame{
			game:  game,
			score: matchScore(strings.ToLower(game.Name), strings.ToLower(query)),
		})
	}

	// Sort by score (lower is better), name as tie-breaker
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].game.Name < ranked[j].game.Name
	})

	results := make([]domain.Game, len(ranked))
	for i, r := range ranked {
		results[i] = r.game
	}

	return results
}

// matchScore calculates a match score for ranking.
// Lower score = better match.
func matchScore(name, query string) int {
	// Exact match is best
	if name == query {
		return 0
	}

	// Prefix match is very good
	if strings.HasPrefix(name, query) {
		return 10
	}

	// Contains match is good
	if idx := strings.Index(name, query); idx >= 0 {
		return 50 + idx
	}

	// Fuzzy distance
	return 100 + fuzzy.LevenshteinDistance(query, name)
}
