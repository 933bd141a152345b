package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"example/chessdebrief/app/models"
)

var lichessAPI = "https://lichess.org/api"

// lichessPerfs are the time controls Lichess reports ratings for.
var lichessPerfs = []models.TimeControl{
	models.TimeControlBullet,
	models.TimeControlBlitz,
	models.TimeControlRapid,
	models.TimeControlClassical,
}

func fetchLichessRatings(ctx context.Context, username string) (models.RatingsMap, error) {
	var user models.LichessUser
	if err := getJSON(ctx, fmt.Sprintf("%s/user/%s", lichessAPI, url.PathEscape(username)), &user); err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	ratings := models.RatingsMap{}
	for _, tc := range lichessPerfs {
		perf := user.Perfs[string(tc)]
		entry := models.RatingEntry{Games: perf.Games, Prog: perf.Prog}
		if perf.Games > 0 {
			entry.Rating = perf.Rating
		}
		ratings[tc] = entry
	}
	return ratings, nil
}

func fetchLichessGames(ctx context.Context, username string, max int, tc models.TimeControl) ([]models.GameRecord, error) {
	q := url.Values{}
	q.Set("max", strconv.Itoa(max))
	q.Set("moves", "true")
	q.Set("tags", "true")
	q.Set("opening", "true")
	q.Set("clocks", "false")
	q.Set("evals", "false")
	if tc != "" {
		q.Set("perfType", string(tc))
	}
	u := fmt.Sprintf("%s/games/user/%s?%s", lichessAPI, url.PathEscape(username), q.Encode())

	pgn, err := getText(ctx, u, "application/x-chess-pgn")
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return ParsePGN(pgn, username, models.PlatformLichess)
}

// fetchLichessTrend returns the rating history of one time control, oldest first.
func fetchLichessTrend(ctx context.Context, username string, tc models.TimeControl) ([]models.TrendPoint, error) {
	var history []models.LichessRatingHistory
	u := fmt.Sprintf("%s/user/%s/rating-history", lichessAPI, url.PathEscape(username))
	if err := getJSON(ctx, u, &history); err != nil {
		if isNotFound(err) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	want := tc.Label()
	for _, series := range history {
		if !strings.EqualFold(series.Name, want) {
			continue
		}
		out := make([]models.TrendPoint, 0, len(series.Points))
		for _, p := range series.Points {
			// Lichess months are 0-based.
			out = append(out, models.TrendPoint{
				Date:   fmt.Sprintf("%04d-%02d-%02d", p[0], p[1]+1, p[2]),
				Rating: p[3],
			})
		}
		return out, nil
	}
	return nil, nil
}
