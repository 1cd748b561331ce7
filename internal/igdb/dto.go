package igdb

// igdbGenre is a game genre as returned by the IGDB API.
type igdbGenre struct {
	Name string `json:"name"`
}

// igdbImage is an image asset (cover art or artwork). The ImageID is used
// to build CDN URLs and local cache paths.
type igdbImage struct {
	ImageID string `json:"image_id"`
}

// igdbCompany is a game company with its role lists. A game ID appearing
// in Developed/Published marks this company as developer/publisher of that
// game; a company may hold both roles.
type igdbCompany struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Published []uint64 `json:"published,omitempty"`
	Developed []uint64 `json:"developed,omitempty"`
}

// igdbInvolvedCompany links a game to a company.
type igdbInvolvedCompany struct {
	Company igdbCompany `json:"company"`
}

// igdbGameInfo is raw game data as returned by the /games endpoint.
type igdbGameInfo struct {
	ID                uint64                `json:"id"`
	Name              string                `json:"name"`
	Cover             *igdbImage            `json:"cover,omitempty"`
	Genres            []igdbGenre           `json:"genres,omitempty"`
	Storyline         *string               `json:"storyline,omitempty"`
	InvolvedCompanies []igdbInvolvedCompany `json:"involved_companies,omitempty"`
	Summary           *string               `json:"summary,omitempty"`
	Artworks          []igdbImage           `json:"artworks,omitempty"`
	FirstReleaseDate  *int64                `json:"first_release_date,omitempty"`
}

// igdbExternalGame is an external-game record mapping an IGDB game ID to a
// store UID (the Steam App ID when external_game_source = 1).
type igdbExternalGame struct {
	Game uint64 `json:"game"`
	UID  string `json:"uid"`
}
