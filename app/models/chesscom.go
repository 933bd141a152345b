package models

type ChessComPlayer struct {
	Username string `json:"username"`
	Result   string `json:"result"`
	Rating   int    `json:"rating"`
}

// ChessComGame is one entry of a Chess.com monthly archive.
type ChessComGame struct {
	URL         string         `json:"url"`
	PGN         string         `json:"pgn"`
	TimeControl string         `json:"time_control"`
	TimeClass   string         `json:"time_class"`
	Rated       bool           `json:"rated"`
	EndTime     int64          `json:"end_time"`
	Rules       string         `json:"rules"`
	White       ChessComPlayer `json:"white"`
	Black       ChessComPlayer `json:"black"`
	ECO         string         `json:"eco"` // opening URL, e.g. https://www.chess.com/openings/Sicilian-Defense-...
}

type ChessComRecord struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

type ChessComPerf struct {
	Last struct {
		Rating int   `json:"rating"`
		Date   int64 `json:"date"`
	} `json:"last"`
	Record ChessComRecord `json:"record"`
}

// ChessComStats is the subset of GET /pub/player/{username}/stats we read.
type ChessComStats struct {
	Bullet *ChessComPerf `json:"chess_bullet"`
	Blitz  *ChessComPerf `json:"chess_blitz"`
	Rapid  *ChessComPerf `json:"chess_rapid"`
	Daily  *ChessComPerf `json:"chess_daily"`
}
