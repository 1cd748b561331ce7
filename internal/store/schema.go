package store

// schema is the full database schema, applied idempotently on open.
//
// genres and companies are shared across games and deduplicated by natural
// key (genre name, IGDB company ID); the remaining tables are per-game link
// tables. local_path on covers/artworks is back-filled after the asset
// mirror has fetched the image.
const schema = `
CREATE TABLE IF NOT EXISTS games (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	summary      TEXT,
	storyline    TEXT,
	release_date INTEGER
);

CREATE TABLE IF NOT EXISTS games_store (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id  INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS covers (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id    INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	cover_id   TEXT NOT NULL,
	local_path TEXT
);

CREATE TABLE IF NOT EXISTS artworks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id    INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	artwork_id TEXT NOT NULL,
	local_path TEXT
);

CREATE TABLE IF NOT EXISTS genres (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS game_genres (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id  INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS companies (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	igdb_id INTEGER NOT NULL UNIQUE,
	name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS developed_by (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id    INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	company_id INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS published_by (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id    INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	company_id INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_games_store_game  ON games_store(game_id);
CREATE INDEX IF NOT EXISTS idx_covers_game       ON covers(game_id);
CREATE INDEX IF NOT EXISTS idx_artworks_game     ON artworks(game_id);
CREATE INDEX IF NOT EXISTS idx_game_genres_game  ON game_genres(game_id);
CREATE INDEX IF NOT EXISTS idx_developed_by_game ON developed_by(game_id);
CREATE INDEX IF NOT EXISTS idx_published_by_game ON published_by(game_id);
`
