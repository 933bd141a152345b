package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"example/chessdebrief/app/models"
)

// pgnDateLayout matches the UTCDate and UTCTime tags written by both platforms.
const pgnDateLayout = "2006.01.02 15:04:05"

// ParsePGN parses a multi-game PGN export into game records from username's
// point of view. Unfinished games ("*") are skipped.
func ParsePGN(pgn, username string, platform models.Platform) ([]models.GameRecord, error) {
	if strings.TrimSpace(pgn) == "" {
		return nil, nil
	}
	games, err := chess.GamesFromPGN(strings.NewReader(pgn))
	if err != nil {
		return nil, fmt.Errorf("parse pgn: %w", err)
	}

	out := make([]models.GameRecord, 0, len(games))
	for _, g := range games {
		if rec, ok := recordFromGame(g, username, platform); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func recordFromGame(g *chess.Game, username string, platform models.Platform) (models.GameRecord, bool) {
	tags := map[string]string{}
	for _, tp := range g.TagPairs() {
		tags[tp.Key] = tp.Value
	}

	color, opponent := models.ColorBlack, tags["White"]
	if strings.EqualFold(tags["White"], username) {
		color, opponent = models.ColorWhite, tags["Black"]
	}
	result, ok := resultFor(color, tags["Result"])
	if !ok {
		return models.GameRecord{}, false
	}

	url := tags["Site"]
	if link := tags["Link"]; link != "" {
		url = link
	}

	sans := sanMoves(g)
	return models.GameRecord{
		ID:                  gameUUID("", url),
		Platform:            platform,
		PlatformGameID:      lastPathSegment(url),
		URL:                 url,
		Color:               color,
		Result:              result,
		Opening:             openingName(tags),
		TimeControl:         tags["TimeControl"],
		TimeControlCategory: categorize(tags["TimeControl"], platform),
		MoveCount:           len(sans),
		Moves:               formatMoves(sans),
		Opponent:            opponent,
		PlayedAt:            playedAt(tags),
	}, true
}

func sanMoves(g *chess.Game) []string {
	moves := g.Moves()
	positions := g.Positions()
	sans := make([]string, 0, len(moves))
	for i, m := range moves {
		if i >= len(positions) {
			break
		}
		sans = append(sans, chess.AlgebraicNotation{}.Encode(positions[i], m))
	}
	return sans
}

func resultFor(color models.PieceColor, pgnResult string) (models.GameResult, bool) {
	switch pgnResult {
	case "1/2-1/2":
		return models.ResultDraw, true
	case "1-0":
		if color == models.ColorWhite {
			return models.ResultWin, true
		}
		return models.ResultLoss, true
	case "0-1":
		if color == models.ColorBlack {
			return models.ResultWin, true
		}
		return models.ResultLoss, true
	}
	return "", false
}

// openingName prefers the Opening tag, then the Chess.com ECOUrl slug, then the ECO code.
func openingName(tags map[string]string) string {
	if o := strings.TrimSpace(tags["Opening"]); o != "" {
		return o
	}
	if o := NormalizeECO(tags["ECOUrl"]); o != "" {
		return o
	}
	if eco := strings.TrimSpace(tags["ECO"]); eco != "" && eco != "?" {
		return eco
	}
	return "Unknown opening"
}

func playedAt(tags map[string]string) time.Time {
	date := tags["UTCDate"]
	if date == "" {
		date = tags["Date"]
	}
	clock := tags["UTCTime"]
	if clock == "" {
		clock = "00:00:00"
	}
	t, err := time.ParseInLocation(pgnDateLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// categorize buckets a PGN TimeControl ("600+5", "1/86400", "-") the way each
// platform does, using the estimated duration base + 40*increment.
func categorize(tc string, platform models.Platform) models.TimeControl {
	if strings.Contains(tc, "/") {
		return models.TimeControlDaily
	}
	baseStr, incStr, _ := strings.Cut(tc, "+")
	base, err := strconv.Atoi(baseStr)
	if err != nil {
		if platform == models.PlatformChessCom {
			return models.TimeControlDaily
		}
		return models.TimeControlClassical
	}
	inc, _ := strconv.Atoi(incStr)
	est := base + 40*inc

	if platform == models.PlatformChessCom {
		switch {
		case est < 180:
			return models.TimeControlBullet
		case est < 600:
			return models.TimeControlBlitz
		default:
			return models.TimeControlRapid
		}
	}
	switch {
	case est < 180:
		return models.TimeControlBullet
	case est < 480:
		return models.TimeControlBlitz
	case est < 1500:
		return models.TimeControlRapid
	default:
		return models.TimeControlClassical
	}
}

var gameNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://chessdebrief.com/games"))

// gameUUID derives a stable id for a game so re-imports hit the same row.
func gameUUID(userID, url string) string {
	return uuid.NewSHA1(gameNamespace, []byte(userID+"|"+url)).String()
}

func lastPathSegment(url string) string {
	url = strings.TrimRight(url, "/")
	if idx := strings.LastIndex(url, "/"); idx != -1 {
		return url[idx+1:]
	}
	return url
}
