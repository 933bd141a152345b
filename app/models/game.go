package models

import "time"

type Platform string

const (
	PlatformLichess  Platform = "lichess"
	PlatformChessCom Platform = "chess.com"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	return p == PlatformLichess || p == PlatformChessCom
}

type TimeControl string

const (
	TimeControlBullet    TimeControl = "bullet"
	TimeControlBlitz     TimeControl = "blitz"
	TimeControlRapid     TimeControl = "rapid"
	TimeControlClassical TimeControl = "classical"
	TimeControlDaily     TimeControl = "daily"
)

// TimeControls lists every category in display order.
var TimeControls = []TimeControl{
	TimeControlBullet,
	TimeControlBlitz,
	TimeControlRapid,
	TimeControlClassical,
	TimeControlDaily,
}

var timeControlLabels = map[TimeControl]string{
	TimeControlBullet:    "Bullet",
	TimeControlBlitz:     "Blitz",
	TimeControlRapid:     "Rapid",
	TimeControlClassical: "Classical",
	TimeControlDaily:     "Daily",
}

// Label returns the capitalized display name, or the raw value for unknown categories.
func (tc TimeControl) Label() string {
	if l, ok := timeControlLabels[tc]; ok {
		return l
	}
	return string(tc)
}

func (tc TimeControl) Valid() bool {
	_, ok := timeControlLabels[tc]
	return ok
}

type GameResult string

const (
	ResultWin  GameResult = "Win"
	ResultLoss GameResult = "Loss"
	ResultDraw GameResult = "Draw"
)

type PieceColor string

const (
	ColorWhite PieceColor = "White"
	ColorBlack PieceColor = "Black"
)

// GameRecord is one imported game from the importing player's point of view.
// Records are immutable once stored.
type GameRecord struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"user_id,omitempty"`
	Platform            Platform    `json:"platform"`
	PlatformGameID      string      `json:"platform_game_id,omitempty"`
	URL                 string      `json:"url"`
	Color               PieceColor  `json:"color"`
	Result              GameResult  `json:"result"`
	Opening             string      `json:"opening"`
	TimeControl         string      `json:"time_control,omitempty"` // raw clock, e.g. "600+0"
	TimeControlCategory TimeControl `json:"time_control_category,omitempty"`
	MoveCount           int         `json:"move_count"`
	Moves               string      `json:"moves,omitempty"` // numbered SAN, e.g. "1.e4 e5 2.Nf3"
	Opponent            string      `json:"opponent"`
	PlayedAt            time.Time   `json:"played_at"`
	CreatedAt           *time.Time  `json:"created_at,omitempty"`
}

// RatingEntry is a player's standing in one time control. A nil Rating means
// no games have been played in that category.
type RatingEntry struct {
	Rating *int `json:"rating"`
	Games  int  `json:"games"`
	Prog   int  `json:"prog"`
}

type RatingsMap map[TimeControl]RatingEntry

type ImportRequest struct {
	Username    string      `json:"username"`
	Platform    Platform    `json:"platform"`
	TimeControl TimeControl `json:"time_control,omitempty"`
	MaxGames    int         `json:"max_games"`
}

type ImportResult struct {
	ImportedCount int          `json:"imported_count"`
	Games         []GameRecord `json:"games"`
	Ratings       RatingsMap   `json:"ratings"`
}

// TrendPoint is one dated rating sample used by the trend chart.
type TrendPoint struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Rating int    `json:"rating"`
}
