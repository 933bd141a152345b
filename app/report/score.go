// Package report holds the pure derivations the dashboard renders from an
// AnalysisReport: the performance score, weakness ordering, rating progress
// indicators and the rating trend chart geometry. Nothing in this package
// performs I/O or returns errors; malformed input degrades to an empty or
// fallback result.
package report

import (
	"math"

	"example/chessdebrief/app/models"
)

// Score weights. These are carried over unchanged from the dashboard so that
// existing reports keep the same score.
const (
	winRateWeight  = 0.7
	drawRateWeight = 15
	scoreBaseline  = 18
	maxScore       = 100
)

// Summary is the session summary shown at the top of a report.
type Summary struct {
	WinRatePct int `json:"win_rate_pct"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
	Total      int `json:"total"`
	Score      int `json:"score"`
}

// Summarize counts results and blends them into a 0-100 performance score.
// When games is empty the report's games_analyzed count is used as the total
// and every ratio term contributes 0.
func Summarize(games []models.GameRecord, gamesAnalyzed int) Summary {
	var s Summary
	for _, g := range games {
		switch g.Result {
		case models.ResultWin:
			s.Wins++
		case models.ResultLoss:
			s.Losses++
		case models.ResultDraw:
			s.Draws++
		}
	}

	s.Total = len(games)
	if s.Total == 0 {
		s.Total = max(gamesAnalyzed, 0)
	}

	drawRate := 0.0
	if s.Total > 0 {
		s.WinRatePct = roundHalfUp(100 * float64(s.Wins) / float64(s.Total))
		drawRate = float64(s.Draws) / float64(s.Total)
	}

	raw := float64(s.WinRatePct)*winRateWeight + drawRate*drawRateWeight + scoreBaseline
	s.Score = min(maxScore, roundHalfUp(raw))
	return s
}

// roundHalfUp matches the rounding used by the web client (ties toward +Inf).
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
