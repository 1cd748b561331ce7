package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rocade/rocade/internal/domain"
)

// baseQuery joins the games table against all link tables, collapsing
// genres, developers, artworks, and covers into JSON arrays with one row
// per game.
const baseQuery = `
SELECT
	games.id AS id,
	games.name AS name,
	games_store.store_id AS store_id,
	games.summary AS summary,
	games.storyline AS storyline,
	games.release_date AS release_date,
	json_group_array(DISTINCT genres.name) AS genres,
	json_group_array(DISTINCT companies.name) AS developers,
	json_group_array(DISTINCT publishers.name) AS publishers,
	json_group_array(DISTINCT artworks.artwork_id) AS artworks,
	json_group_array(DISTINCT covers.cover_id) AS covers,
	json_group_array(DISTINCT covers.local_path) AS cover_paths
FROM games
LEFT JOIN developed_by ON games.id = developed_by.game_id
LEFT JOIN companies ON developed_by.company_id = companies.id
LEFT JOIN published_by ON games.id = published_by.game_id
LEFT JOIN companies AS publishers ON published_by.company_id = publishers.id
LEFT JOIN game_genres ON games.id = game_genres.game_id
LEFT JOIN genres ON game_genres.genre_id = genres.id
LEFT JOIN artworks ON artworks.game_id = games.id
LEFT JOIN covers ON covers.game_id = games.id
LEFT JOIN games_store ON games_store.game_id = games.id
`

// groupOrder is appended to every read query built on baseQuery.
const groupOrder = `
GROUP BY games.id, games.name, games_store.store_id, games.summary, games.storyline, games.release_date
ORDER BY games.name
`

// InsertComplete writes a resolved game and all its relations in a single
// transaction and returns the new game row's ID.
//
// Genres are upserted by name and companies by IGDB ID, so shared rows are
// reused across games rather than duplicated. Any failure rolls the whole
// record back; a game is never partially visible.
func (s *Store) InsertComplete(ctx context.Context, game domain.CatalogGame) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var gameID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO games (name, summary, storyline, release_date) VALUES (?, ?, ?, ?) RETURNING id`,
		game.Name, game.Summary, game.Storyline, game.ReleaseDate,
	).Scan(&gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert game: %w", err)
	}

	if game.StoreID != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO games_store (game_id, store_id) VALUES (?, ?)`,
			gameID, *game.StoreID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert store id: %w", err)
		}
	}

	if game.CoverID != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO covers (game_id, cover_id) VALUES (?, ?)`,
			gameID, *game.CoverID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert cover: %w", err)
		}
	}

	for _, artworkID := range game.ArtworkIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO artworks (game_id, artwork_id) VALUES (?, ?)`,
			gameID, artworkID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert artwork: %w", err)
		}
	}

	for _, genre := range game.Genres {
		var genreID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO genres (name) VALUES (?)
			 ON CONFLICT(name) DO UPDATE SET name = name
			 RETURNING id`,
			genre,
		).Scan(&genreID)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert genre: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO game_genres (game_id, genre_id) VALUES (?, ?)`,
			gameID, genreID)
		if err != nil {
			return 0, fmt.Errorf("failed to link genre: %w", err)
		}
	}

	for _, developer := range game.Developers {
		companyID, err := upsertCompany(ctx, tx, developer)
		if err != nil {
			return 0, err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO developed_by (game_id, company_id) VALUES (?, ?)`,
			gameID, companyID)
		if err != nil {
			return 0, fmt.Errorf("failed to link developer: %w", err)
		}
	}

	for _, publisher := range game.Publishers {
		companyID, err := upsertCompany(ctx, tx, publisher)
		if err != nil {
			return 0, err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO published_by (game_id, company_id) VALUES (?, ?)`,
			gameID, companyID)
		if err != nil {
			return 0, fmt.Errorf("failed to link publisher: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit game: %w", err)
	}

	return gameID, nil
}

// upsertCompany inserts a company or reuses the existing row with the
// same IGDB ID, returning the local row ID either way.
func upsertCompany(ctx context.Context, tx *sql.Tx, company domain.Company) (int64, error) {
	var companyID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO companies (igdb_id, name) VALUES (?, ?)
		 ON CONFLICT(igdb_id) DO UPDATE SET igdb_id = igdb_id
		 RETURNING id`,
		company.ID, company.Name,
	).Scan(&companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert company: %w", err)
	}
	return companyID, nil
}

// ListAll returns all games ordered by name, with their aggregated
// relations. IsInstalled is always nil; callers attach it.
func (s *Store) ListAll(ctx context.Context) ([]domain.Game, error) {
	rows, err := s.db.QueryContext(ctx, baseQuery+groupOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		game, err := scanGameRow(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read games: %w", err)
	}

	if err := s.attachArtworkPaths(ctx, games); err != nil {
		return nil, err
	}

	return games, nil
}

// GetByID returns a single game with its aggregated relations.
// Returns domain.ErrGameNotFound when no such game exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Game, error) {
	rows, err := s.db.QueryContext(ctx, baseQuery+" WHERE games.id = ? "+groupOrder, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query game: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read game: %w", err)
		}
		return nil, domain.ErrGameNotFound
	}

	game, err := scanGameRow(rows)
	if err != nil {
		return nil, err
	}

	games := []domain.Game{*game}
	if err := s.attachArtworkPaths(ctx, games); err != nil {
		return nil, err
	}

	return &games[0], nil
}

// GetStoreID returns the Steam App ID linked to a game.
// Returns domain.ErrNoStoreID when the game has no store entry.
func (s *Store) GetStoreID(ctx context.Context, id int64) (string, error) {
	var storeID string
	err := s.db.QueryRowContext(ctx,
		`SELECT store_id FROM games_store WHERE game_id = ?`, id,
	).Scan(&storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNoStoreID
	}
	if err != nil {
		return "", fmt.Errorf("failed to query store id: %w", err)
	}
	return storeID, nil
}

// UpdateCoverPath back-fills the local path of a game's mirrored cover.
func (s *Store) UpdateCoverPath(ctx context.Context, gameID int64, localPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE covers SET local_path = ? WHERE game_id = ?`, localPath, gameID)
	if err != nil {
		return fmt.Errorf("failed to update cover path: %w", err)
	}
	return nil
}

// UpdateArtworkPaths back-fills local paths for a game's mirrored
// artworks, keyed by artwork image ID.
func (s *Store) UpdateArtworkPaths(ctx context.Context, gameID int64, paths map[string]string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for artworkID, localPath := range paths {
		_, err = tx.ExecContext(ctx,
			`UPDATE artworks SET local_path = ? WHERE game_id = ? AND artwork_id = ?`,
			localPath, gameID, artworkID)
		if err != nil {
			return fmt.Errorf("failed to update artwork path: %w", err)
		}
	}

	return tx.Commit()
}

// scanGameRow maps one aggregated row produced by baseQuery.
func scanGameRow(rows *sql.Rows) (*domain.Game, error) {
	var (
		game                                     domain.Game
		genresJSON, developersJSON, artworksJSON string
		publishersJSON                           string
		coversJSON, coverPathsJSON               string
	)

	err := rows.Scan(&game.ID, &game.Name, &game.StoreID, &game.Summary,
		&game.Storyline, &game.ReleaseDate, &genresJSON, &developersJSON,
		&publishersJSON, &artworksJSON, &coversJSON, &coverPathsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to scan game row: %w", err)
	}

	if game.Genres, err = decodeAggregate(genresJSON); err != nil {
		return nil, err
	}
	if game.Developers, err = decodeAggregate(developersJSON); err != nil {
		return nil, err
	}
	if game.Publishers, err = decodeAggregate(publishersJSON); err != nil {
		return nil, err
	}
	if game.Artworks, err = decodeAggregate(artworksJSON); err != nil {
		return nil, err
	}

	covers, err := decodeAggregate(coversJSON)
	if err != nil {
		return nil, err
	}
	coverPaths, err := decodeAggregate(coverPathsJSON)
	if err != nil {
		return nil, err
	}

	// Multiple cover rows should not normally happen but are tolerated;
	// the most recently linked one wins.
	if len(covers) > 0 {
		game.Cover = &covers[len(covers)-1]
	}
	if len(coverPaths) > 0 {
		game.CoverPath = &coverPaths[len(coverPaths)-1]
	}

	return &game, nil
}

// decodeAggregate decodes a json_group_array column. LEFT JOINs put SQL
// NULLs into the array as JSON nulls; those entries are filtered out
// before use. A payload that fails to decode is a store-layer bug and is
// surfaced as an error, not an empty list.
func decodeAggregate(payload string) ([]string, error) {
	var entries []*string
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("malformed aggregate payload %q: %w", payload, err)
	}

	var values []string
	for _, entry := range entries {
		if entry != nil {
			values = append(values, *entry)
		}
	}
	return values, nil
}

// attachArtworkPaths fills ArtworkPaths for every game that has mirrored
// artwork files recorded.
func (s *Store) attachArtworkPaths(ctx context.Context, games []domain.Game) error {
	if len(games) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, artwork_id, local_path FROM artworks WHERE local_path IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("failed to query artwork paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[int64]map[string]string)
	for rows.Next() {
		var (
			gameID               int64
			artworkID, localPath string
		)
		if err := rows.Scan(&gameID, &artworkID, &localPath); err != nil {
			return fmt.Errorf("failed to scan artwork path: %w", err)
		}
		if paths[gameID] == nil {
			paths[gameID] = make(map[string]string)
		}
		paths[gameID][artworkID] = localPath
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read artwork paths: %w", err)
	}

	for i := range games {
		if p, ok := paths[games[i].ID]; ok {
			games[i].ArtworkPaths = p
		}
	}

	return nil
}
