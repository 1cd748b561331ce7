package steam

// ownedGame is a game entry as returned by the GetOwnedGames endpoint.
type ownedGame struct {
	AppID           uint64  `json:"appid"`
	Name            string  `json:"name"`
	Playtime2Weeks  *uint64 `json:"playtime_2weeks,omitempty"`
	PlaytimeForever *uint64 `json:"playtime_forever,omitempty"`
	ImgIconURL      string  `json:"img_icon_url,omitempty"`
	ImgLogoURL      string  `json:"img_logo_url,omitempty"`
}

// gameList is the inner payload of the GetOwnedGames response.
type gameList struct {
	GameCount uint64      `json:"game_count"`
	Games     []ownedGame `json:"games"`
}

// gameListResponse is the top-level wrapper for the GetOwnedGames JSON response.
type gameListResponse struct {
	Response gameList `json:"response"`
}
