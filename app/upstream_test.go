package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example/chessdebrief/app/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// stubPlatforms routes every outgoing request to handle and removes the
// retry and archive delays.
func stubPlatforms(t *testing.T, handle func(req *http.Request) (int, string)) {
	t.Helper()
	prevClient, prevBackoff, prevPause := httpc, retryBackoff, archivePause
	prevLichess, prevChessCom := lichessAPI, chessComAPI
	httpc = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		status, body := handle(req)
		return textResponse(status, body), nil
	})}
	retryBackoff, archivePause = 0, 0
	lichessAPI, chessComAPI = "https://lichess.test/api", "https://chesscom.test/pub"
	t.Cleanup(func() {
		httpc, retryBackoff, archivePause = prevClient, prevBackoff, prevPause
		lichessAPI, chessComAPI = prevLichess, prevChessCom
	})
}

const lichessUserJSON = `{
	"id": "chessplayer42",
	"username": "ChessPlayer42",
	"perfs": {
		"bullet": {"games": 0, "rating": 1500, "prog": 0, "prov": true},
		"blitz": {"games": 120, "rating": 1452, "prog": -12},
		"rapid": {"games": 312, "rating": 1601, "prog": 25},
		"classical": {"games": 3, "rating": 1700, "prog": 0}
	}
}`

func TestFetchLichessRatings(t *testing.T) {
	stubPlatforms(t, func(req *http.Request) (int, string) {
		if req.URL.Path != "/api/user/ChessPlayer42" {
			return http.StatusNotFound, `{"error":"Not found"}`
		}
		if got := req.Header.Get("User-Agent"); got != userAgent {
			return http.StatusBadRequest, `{"error":"missing user agent"}`
		}
		return http.StatusOK, lichessUserJSON
	})

	ratings, err := fetchLichessRatings(context.Background(), "ChessPlayer42")
	require.NoError(t, err)
	require.Len(t, ratings, 4)

	rapid := ratings[models.TimeControlRapid]
	require.NotNil(t, rapid.Rating)
	assert.Equal(t, 1601, *rapid.Rating)
	assert.Equal(t, 25, rapid.Prog)
	assert.Equal(t, -12, ratings[models.TimeControlBlitz].Prog)
	assert.Nil(t, ratings[models.TimeControlBullet].Rating, "unplayed category must have no rating")

	_, err = fetchLichessRatings(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	stubPlatforms(t, func(*http.Request) (int, string) {
		if calls.Add(1) == 1 {
			return http.StatusServiceUnavailable, `{"message":"try later"}`
		}
		return http.StatusOK, lichessUserJSON
	})

	_, err := fetchLichessRatings(context.Background(), "ChessPlayer42")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	stubPlatforms(t, func(*http.Request) (int, string) {
		calls.Add(1)
		return http.StatusBadRequest, `{"message":"bad username"}`
	})

	_, err := fetchLichessRatings(context.Background(), "ChessPlayer42")
	var herr httpError
	require.True(t, errors.As(err, &herr), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, herr.Status)
	assert.Equal(t, "bad username", herr.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetGivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	stubPlatforms(t, func(*http.Request) (int, string) {
		calls.Add(1)
		return http.StatusTooManyRequests, `{}`
	})

	_, err := fetchLichessRatings(context.Background(), "ChessPlayer42")
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchLichessTrend(t *testing.T) {
	stubPlatforms(t, func(req *http.Request) (int, string) {
		return http.StatusOK, `[
			{"name": "Blitz", "points": [[2026, 0, 5, 1400]]},
			{"name": "Rapid", "points": [[2025, 11, 1, 1488], [2026, 1, 28, 1601]]}
		]`
	})

	points, err := fetchLichessTrend(context.Background(), "ChessPlayer42", models.TimeControlRapid)
	require.NoError(t, err)
	assert.Equal(t, []models.TrendPoint{
		{Date: "2025-12-01", Rating: 1488},
		{Date: "2026-02-28", Rating: 1601},
	}, points)

	points, err = fetchLichessTrend(context.Background(), "ChessPlayer42", models.TimeControlClassical)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestLiveRatingTrendCoversNinetyDays(t *testing.T) {
	stubPlatforms(t, func(req *http.Request) (int, string) {
		return http.StatusOK, `[
			{"name": "Rapid", "points": [[2024, 5, 1, 1300], [2025, 10, 30, 1450], [2025, 11, 1, 1488], [2026, 1, 28, 1601]]}
		]`
	})

	src := NewLiveDataSource(nil)
	src.now = func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

	points, err := src.RatingTrend(context.Background(), TrendQuery{
		Platform: models.PlatformLichess,
		Username: "ChessPlayer42",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.TrendPoint{
		{Date: "2025-12-01", Rating: 1488},
		{Date: "2026-02-28", Rating: 1601},
	}, points)
}

func TestTrimTrend(t *testing.T) {
	since := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	points := []models.TrendPoint{
		{Date: "2025-12-31", Rating: 1400},
		{Date: "2026-01-01", Rating: 1410},
		{Date: "garbage", Rating: 9999},
		{Date: "2026-02-01", Rating: 1420},
	}
	assert.Equal(t, []models.TrendPoint{
		{Date: "2026-01-01", Rating: 1410},
		{Date: "2026-02-01", Rating: 1420},
	}, trimTrend(points, since))
	assert.Empty(t, trimTrend(nil, since))
}

const lichessPGN = `[Event "Rated Rapid game"]
[Site "https://lichess.org/ab1def2g"]
[Date "2026.02.14"]
[White "ChessPlayer42"]
[Black "knightrider_77"]
[Result "1-0"]
[UTCDate "2026.02.14"]
[UTCTime "18:00:00"]
[TimeControl "600+0"]
[Opening "Italian Game: Two Knights Defense"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 Nf6 4. Ng5 d5 1-0

[Event "Rated Blitz game"]
[Site "https://lichess.org/bc2ghi3j"]
[Date "2026.02.15"]
[White "e4_enjoyer"]
[Black "ChessPlayer42"]
[Result "0-1"]
[UTCDate "2026.02.15"]
[UTCTime "09:30:00"]
[TimeControl "180+2"]
[ECO "B01"]

1. e4 d5 2. exd5 Qxd5 0-1

[Event "Casual Rapid game"]
[Site "https://lichess.org/cd3jkl4m"]
[White "ChessPlayer42"]
[Black "BackRankBandit"]
[Result "*"]
[TimeControl "600+0"]

1. d4 d5 *
`

func TestFetchLichessGames(t *testing.T) {
	var query string
	stubPlatforms(t, func(req *http.Request) (int, string) {
		query = req.URL.RawQuery
		if req.Header.Get("Accept") != "application/x-chess-pgn" {
			return http.StatusNotAcceptable, `{}`
		}
		return http.StatusOK, lichessPGN
	})

	games, err := fetchLichessGames(context.Background(), "ChessPlayer42", 20, models.TimeControlRapid)
	require.NoError(t, err)
	assert.Contains(t, query, "perfType=rapid")
	assert.Contains(t, query, "max=20")
	require.Len(t, games, 2, "unfinished games are skipped")

	first := games[0]
	assert.Equal(t, models.ColorWhite, first.Color)
	assert.Equal(t, models.ResultWin, first.Result)
	assert.Equal(t, "knightrider_77", first.Opponent)
	assert.Equal(t, "ab1def2g", first.PlatformGameID)
	assert.Equal(t, 8, first.MoveCount)
	assert.Equal(t, "1.e4 e5 2.Nf3 Nc6 3.Bc4 Nf6 4.Ng5 d5", first.Moves)
	assert.Equal(t, "Italian Game: Two Knights Defense", first.Opening)
	assert.Equal(t, models.TimeControlRapid, first.TimeControlCategory)
	assert.Equal(t, time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC), first.PlayedAt)

	second := games[1]
	assert.Equal(t, models.ColorBlack, second.Color)
	assert.Equal(t, models.ResultWin, second.Result)
	assert.Equal(t, "B01", second.Opening)
	assert.Equal(t, models.TimeControlBlitz, second.TimeControlCategory)
}

func chessComGameJSON(url, timeClass string, end int64, whiteRating, blackRating int, whiteResult string) string {
	blackResult := "resigned"
	if whiteResult != "win" {
		blackResult = "win"
	}
	return fmt.Sprintf(`{"url": %q, "pgn": "", "time_control": "600", "time_class": %q, "rules": "chess", "end_time": %d,
		"white": {"username": "ChessPlayer42", "rating": %d, "result": %q},
		"black": {"username": "rival", "rating": %d, "result": %q},
		"eco": "https://www.chess.com/openings/Sicilian-Defense-Najdorf-Variation-6.Be3"}`,
		url, timeClass, end, whiteRating, whiteResult, blackRating, blackResult)
}

func TestFetchChessComGames(t *testing.T) {
	day := int64(1767225600) // 2026-01-01 00:00 UTC
	archives := map[string]string{
		"/pub/player/chessplayer42/games/archives": `{"archives": [
			"https://chesscom.test/pub/player/chessplayer42/games/2026/01",
			"https://chesscom.test/pub/player/chessplayer42/games/2026/02"
		]}`,
		"/pub/player/chessplayer42/games/2026/01": `{"games": [` +
			chessComGameJSON("https://www.chess.com/game/live/1", "rapid", day, 1500, 1490, "win") + `]}`,
		"/pub/player/chessplayer42/games/2026/02": `{"games": [` +
			chessComGameJSON("https://www.chess.com/game/live/2", "rapid", day+40*86400, 1510, 1500, "win") + `,` +
			chessComGameJSON("https://www.chess.com/game/live/3", "blitz", day+41*86400, 1300, 1320, "checkmated") + `,` +
			chessComGameJSON("https://www.chess.com/game/live/4", "rapid", day+42*86400, 1505, 1530, "resigned") + `]}`,
	}
	var fetched []string
	stubPlatforms(t, func(req *http.Request) (int, string) {
		fetched = append(fetched, req.URL.Path)
		body, ok := archives[req.URL.Path]
		if !ok {
			return http.StatusNotFound, `{"message":"not found"}`
		}
		return http.StatusOK, body
	})

	games, err := fetchChessComGames(context.Background(), "ChessPlayer42", 2, models.TimeControlRapid)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "https://www.chess.com/game/live/4", games[0].URL, "newest first")
	assert.Equal(t, "https://www.chess.com/game/live/2", games[1].URL)
	assert.NotContains(t, fetched, "/pub/player/chessplayer42/games/2026/01", "stops once enough games are collected")

	records := chessComRecords("ChessPlayer42", games)
	require.Len(t, records, 2)
	assert.Equal(t, models.ResultLoss, records[0].Result)
	assert.Equal(t, "rival", records[0].Opponent)
	assert.Equal(t, "Sicilian Defense Najdorf Variation", records[0].Opening)
	assert.Equal(t, "4", records[0].PlatformGameID)
	assert.Equal(t, models.TimeControlRapid, records[0].TimeControlCategory)

	_, err = fetchChessComGames(context.Background(), "ghost", 2, "")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestFetchChessComRatings(t *testing.T) {
	stubPlatforms(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{
			"chess_rapid": {"last": {"rating": 1601, "date": 1767225600}, "record": {"win": 10, "loss": 4, "draw": 1}},
			"chess_daily": {"last": {"rating": 1200, "date": 1767225600}, "record": {"win": 0, "loss": 0, "draw": 0}}
		}`
	})

	ratings, err := fetchChessComRatings(context.Background(), "ChessPlayer42")
	require.NoError(t, err)
	require.NotNil(t, ratings[models.TimeControlRapid].Rating)
	assert.Equal(t, 1601, *ratings[models.TimeControlRapid].Rating)
	assert.Equal(t, 15, ratings[models.TimeControlRapid].Games)
	assert.Nil(t, ratings[models.TimeControlDaily].Rating)
	assert.Nil(t, ratings[models.TimeControlBullet].Rating)
	assert.NotContains(t, ratings, models.TimeControlClassical)
}

func TestChessComTrendKeepsLastRatingPerDay(t *testing.T) {
	day := int64(1767225600)
	games := []models.ChessComGame{ // newest first
		{EndTime: day + 86400 + 600, White: models.ChessComPlayer{Username: "rival", Rating: 1400}, Black: models.ChessComPlayer{Username: "ChessPlayer42", Rating: 1522}},
		{EndTime: day + 86400, White: models.ChessComPlayer{Username: "ChessPlayer42", Rating: 1515}},
		{EndTime: day + 3600, White: models.ChessComPlayer{Username: "ChessPlayer42", Rating: 1508}},
		{EndTime: day, White: models.ChessComPlayer{Username: "chessplayer42", Rating: 1500}},
	}
	got := chessComTrend("ChessPlayer42", games)
	assert.Equal(t, []models.TrendPoint{
		{Date: "2026-01-01", Rating: 1508},
		{Date: "2026-01-02", Rating: 1522},
	}, got)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		tc       string
		platform models.Platform
		want     models.TimeControl
	}{
		{"60+0", models.PlatformLichess, models.TimeControlBullet},
		{"180+2", models.PlatformLichess, models.TimeControlBlitz},
		{"600+5", models.PlatformLichess, models.TimeControlRapid},
		{"1800+0", models.PlatformLichess, models.TimeControlClassical},
		{"-", models.PlatformLichess, models.TimeControlClassical},
		{"300", models.PlatformChessCom, models.TimeControlBlitz},
		{"1800", models.PlatformChessCom, models.TimeControlRapid},
		{"1/86400", models.PlatformChessCom, models.TimeControlDaily},
		{"-", models.PlatformChessCom, models.TimeControlDaily},
	}
	for _, tt := range tests {
		if got := categorize(tt.tc, tt.platform); got != tt.want {
			t.Fatalf("categorize(%q, %s) = %s, want %s", tt.tc, tt.platform, got, tt.want)
		}
	}
}

func TestGameUUIDIsStablePerUser(t *testing.T) {
	a := gameUUID("u1", "https://lichess.org/ab1def2g")
	if a != gameUUID("u1", "https://lichess.org/ab1def2g") {
		t.Fatalf("gameUUID is not deterministic")
	}
	if a == gameUUID("u2", "https://lichess.org/ab1def2g") {
		t.Fatalf("gameUUID must differ between users")
	}
}
