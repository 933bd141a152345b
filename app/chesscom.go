package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

var chessComAPI = "https://api.chess.com/pub"

// archivePause spaces out archive requests; Chess.com throttles bursts.
var archivePause = 500 * time.Millisecond

// chessComPerfs are the time controls Chess.com reports ratings for.
var chessComPerfs = []models.TimeControl{
	models.TimeControlBullet,
	models.TimeControlBlitz,
	models.TimeControlRapid,
	models.TimeControlDaily,
}

type archiveIndex struct {
	Archives []string `json:"archives"`
}

type monthlyGames struct {
	Games []models.ChessComGame `json:"games"`
}

func fetchChessComRatings(ctx context.Context, username string) (models.RatingsMap, error) {
	var stats models.ChessComStats
	u := fmt.Sprintf("%s/player/%s/stats", chessComAPI, url.PathEscape(strings.ToLower(username)))
	if err := getJSON(ctx, u, &stats); err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	perfs := map[models.TimeControl]*models.ChessComPerf{
		models.TimeControlBullet: stats.Bullet,
		models.TimeControlBlitz:  stats.Blitz,
		models.TimeControlRapid:  stats.Rapid,
		models.TimeControlDaily:  stats.Daily,
	}
	ratings := models.RatingsMap{}
	for _, tc := range chessComPerfs {
		// Chess.com exposes no recent-progress figure, so prog stays 0.
		var entry models.RatingEntry
		if p := perfs[tc]; p != nil {
			entry.Games = p.Record.Win + p.Record.Loss + p.Record.Draw
			if entry.Games > 0 {
				rating := p.Last.Rating
				entry.Rating = &rating
			}
		}
		ratings[tc] = entry
	}
	return ratings, nil
}

// fetchChessComGames walks the monthly archives newest first until max games
// of the requested time class are collected. The result is newest first.
func fetchChessComGames(ctx context.Context, username string, max int, tc models.TimeControl) ([]models.ChessComGame, error) {
	var idx archiveIndex
	u := fmt.Sprintf("%s/player/%s/games/archives", chessComAPI, url.PathEscape(strings.ToLower(username)))
	if err := getJSON(ctx, u, &idx); err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	var collected []models.ChessComGame
	for i := len(idx.Archives) - 1; i >= 0 && len(collected) < max; i-- {
		if i < len(idx.Archives)-1 && archivePause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(archivePause):
			}
		}

		var mg monthlyGames
		if err := getJSON(ctx, idx.Archives[i], &mg); err != nil {
			logger.Warn().Err(err).Str("archive", idx.Archives[i]).Msg("skipping chess.com archive")
			continue
		}
		// Archives are oldest first.
		for j := len(mg.Games) - 1; j >= 0; j-- {
			g := mg.Games[j]
			if g.Rules != "" && g.Rules != "chess" {
				continue
			}
			if tc != "" && g.TimeClass != string(tc) {
				continue
			}
			collected = append(collected, g)
		}
	}

	if len(collected) > max {
		collected = collected[:max]
	}
	return collected, nil
}

// derivePOV reads a Chess.com game from username's side of the board.
func derivePOV(username string, g models.ChessComGame) (color models.PieceColor, opponent string, result models.GameResult) {
	me, them := g.Black, g.White
	color = models.ColorBlack
	if strings.EqualFold(g.White.Username, username) {
		me, them = g.White, g.Black
		color = models.ColorWhite
	}
	switch {
	case me.Result == "win":
		result = models.ResultWin
	case them.Result == "win":
		result = models.ResultLoss
	default:
		result = models.ResultDraw
	}
	return color, them.Username, result
}

func chessComRecords(username string, games []models.ChessComGame) []models.GameRecord {
	out := make([]models.GameRecord, 0, len(games))
	for _, g := range games {
		color, opponent, result := derivePOV(username, g)
		rec := models.GameRecord{
			ID:                  gameUUID("", g.URL),
			Platform:            models.PlatformChessCom,
			PlatformGameID:      lastPathSegment(g.URL),
			URL:                 g.URL,
			Color:               color,
			Result:              result,
			Opening:             NormalizeECO(g.ECO),
			TimeControl:         g.TimeControl,
			TimeControlCategory: models.TimeControl(g.TimeClass),
			Opponent:            opponent,
			PlayedAt:            time.Unix(g.EndTime, 0).UTC(),
		}

		parsed, err := ParsePGN(g.PGN, username, models.PlatformChessCom)
		if err != nil {
			logger.Debug().Err(err).Str("url", g.URL).Msg("chess.com pgn not parsed")
		}
		if len(parsed) > 0 {
			rec.MoveCount = parsed[0].MoveCount
			rec.Moves = parsed[0].Moves
			if rec.Opening == "" {
				rec.Opening = parsed[0].Opening
			}
		}
		if rec.Opening == "" {
			rec.Opening = "Unknown opening"
		}
		out = append(out, rec)
	}
	return out
}

// chessComTrend builds a rating series from archived games, keeping the last
// rating of each day, oldest first. games must be newest first.
func chessComTrend(username string, games []models.ChessComGame) []models.TrendPoint {
	var out []models.TrendPoint
	for i := len(games) - 1; i >= 0; i-- {
		g := games[i]
		rating := g.Black.Rating
		if strings.EqualFold(g.White.Username, username) {
			rating = g.White.Rating
		}
		date := time.Unix(g.EndTime, 0).UTC().Format(time.DateOnly)
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].Rating = rating
			continue
		}
		out = append(out, models.TrendPoint{Date: date, Rating: rating})
	}
	return out
}
