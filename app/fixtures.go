package app

import (
	"fmt"
	"time"

	"example/chessdebrief/app/models"
)

// MockReportID is the id the mock analysis trigger always hands back.
const MockReportID = "report-00000000-0000-0000-0000-000000000001"

func intp(v int) *int { return &v }

// MockRatings is the fixture ratings card: no classical games played.
func MockRatings() models.RatingsMap {
	return models.RatingsMap{
		models.TimeControlBullet:    {Rating: intp(1342), Games: 203, Prog: -18},
		models.TimeControlBlitz:     {Rating: intp(1487), Games: 891, Prog: 12},
		models.TimeControlRapid:     {Rating: intp(1601), Games: 234, Prog: 5},
		models.TimeControlClassical: {Rating: nil, Games: 0, Prog: 0},
	}
}

// MockRapidTrend is ninety days of rapid rating history.
func MockRapidTrend() []models.TrendPoint {
	return []models.TrendPoint{
		{Date: "2025-12-01", Rating: 1488},
		{Date: "2025-12-10", Rating: 1511},
		{Date: "2025-12-18", Rating: 1497},
		{Date: "2025-12-26", Rating: 1523},
		{Date: "2026-01-04", Rating: 1508},
		{Date: "2026-01-12", Rating: 1534},
		{Date: "2026-01-20", Rating: 1519},
		{Date: "2026-01-28", Rating: 1547},
		{Date: "2026-02-05", Rating: 1562},
		{Date: "2026-02-12", Rating: 1578},
		{Date: "2026-02-18", Rating: 1590},
		{Date: "2026-02-24", Rating: 1596},
		{Date: "2026-02-28", Rating: 1601},
	}
}

type fixtureGame struct {
	slug     string
	color    models.PieceColor
	result   models.GameResult
	opening  string
	moves    int
	opponent string
}

var fixtureGames = []fixtureGame{
	{"ab1def2g", models.ColorWhite, models.ResultWin, "Italian Game: Giuoco Pianissimo", 38, "knightrider_77"},
	{"bc2ghi3j", models.ColorBlack, models.ResultLoss, "Sicilian Defense: Najdorf Variation", 52, "e4_enjoyer"},
	{"cd3jkl4m", models.ColorWhite, models.ResultLoss, "Queen's Gambit Declined: Orthodox Defense", 44, "BackRankBandit"},
	{"de4ijk5l", models.ColorBlack, models.ResultWin, "Caro-Kann Defense: Advance Variation", 61, "pawnstormer"},
	{"ef5klm6n", models.ColorWhite, models.ResultDraw, "London System", 83, "slowandsteady"},
	{"fg6lmn7o", models.ColorBlack, models.ResultWin, "French Defense: Winawer Variation", 47, "gambit_greg"},
	{"gh7mno8p", models.ColorWhite, models.ResultLoss, "Queen's Gambit Declined: Exchange Variation", 36, "tactician_tom"},
	{"hi8pqr9s", models.ColorBlack, models.ResultDraw, "Ruy Lopez: Berlin Defense", 91, "endgame_ella"},
	{"ij9stu0v", models.ColorBlack, models.ResultLoss, "Sicilian Defense: Najdorf Variation", 58, "openfile_olly"},
	{"jk10rst1", models.ColorBlack, models.ResultWin, "Sicilian Defense: Najdorf Variation", 49, "dragonslayer"},
	{"kl11mno2", models.ColorWhite, models.ResultDraw, "Queen's Gambit Declined: Ragozin Defense", 77, "fortressfan"},
	{"lm12nop3", models.ColorWhite, models.ResultWin, "Catalan Opening: Open Defense", 41, "quietmove"},
	{"mn13opq4", models.ColorBlack, models.ResultWin, "Scandinavian Defense", 33, "earlyqueen"},
	{"no14pqr5", models.ColorWhite, models.ResultLoss, "Queen's Gambit Declined: Orthodox Defense", 55, "discovery_dan"},
	{"op15qrs6", models.ColorBlack, models.ResultWin, "King's Indian Defense: Classical Variation", 64, "fianchetto_fred"},
}

// MockGames is the fifteen-game rapid sample the fixture report was built from.
func MockGames() []models.GameRecord {
	start := time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC)
	out := make([]models.GameRecord, len(fixtureGames))
	for i, g := range fixtureGames {
		out[i] = models.GameRecord{
			ID:                  fmt.Sprintf("game-%03d", i+1),
			Platform:            models.PlatformLichess,
			PlatformGameID:      g.slug,
			URL:                 "https://lichess.org/" + g.slug,
			Color:               g.color,
			Result:              g.result,
			Opening:             g.opening,
			TimeControl:         "600+0",
			TimeControlCategory: models.TimeControlRapid,
			MoveCount:           g.moves,
			Opponent:            g.opponent,
			PlayedAt:            start.Add(time.Duration(i) * 22 * time.Hour),
		}
	}
	return out
}

func cite(n int) models.GameCitation {
	g := fixtureGames[n-1]
	return models.GameCitation{
		GameNumber: n,
		URL:        "https://lichess.org/" + g.slug,
		GameID:     fmt.Sprintf("game-%03d", n),
	}
}

func puzzleDay(day models.Weekday, name, slug, note string) models.PuzzleDay {
	return models.PuzzleDay{
		Day:          day,
		ThemeName:    name,
		ThemeSlug:    slug,
		ThemeURL:     lichessTrainingURL + slug,
		CoachingNote: note,
	}
}

// MockReport is the complete fixture debrief for userID and username.
func MockReport(userID, username string) models.AnalysisReport {
	rapid := models.TimeControlRapid
	return models.AnalysisReport{
		ID:            MockReportID,
		UserID:        userID,
		Platform:      models.PlatformLichess,
		Username:      username,
		TimeControl:   &rapid,
		Ratings:       MockRatings(),
		GamesAnalyzed: 15,
		Status:        models.StatusComplete,
		CreatedAt:     time.Date(2026, 2, 28, 10, 5, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 2, 28, 10, 5, 45, 0, time.UTC),
		Weaknesses: []models.Weakness{
			{
				Rank:  1,
				Title: "Chronic Back-Rank Vulnerability",
				Description: "Across your recent rapid games your king sits on the first rank with no escape square after castling short. " +
					"You prioritize piece activity over defensive structure and leave the back rank unguarded as the position opens. " +
					"In each cited game a back-rank motif decided the outcome.",
				GameCitations: []models.GameCitation{cite(3), cite(7), cite(14)},
				ActionableTip: "Before every rook trade or open-file operation ask whether your king has a luft square. " +
					"Play h3/g3 as White or ...h6/...g6 as Black whenever rooks remain and the center is opening.",
			},
			{
				Rank:  2,
				Title: "Premature Queenside Pawn Advances",
				Description: "In three games you pushed queenside pawns (...b5 or ...a5 as Black, b4 as White) before finishing development. " +
					"Each time it left backward or isolated pawns that your opponent targeted over the next 15-20 moves.",
				GameCitations: []models.GameCitation{cite(2), cite(9), cite(14)},
				ActionableTip: "Only expand on the queenside once the center is locked or yours, your pieces are developed, " +
					"and you know which square weakness you are creating and how to defend it.",
			},
			{
				Rank:  3,
				Title: "Endgame Technique in Rook-and-Pawn Endings",
				Description: "You reach rook endgames with an edge but convert at a low rate. In Games 5, 8 and 11 you held a winning position " +
					"after move 40 and let the opposing rook activate. Your rook defends pawns from behind instead of cutting off the king.",
				GameCitations: []models.GameCitation{cite(5), cite(8), cite(11)},
				ActionableTip: "Learn the Lucena and Philidor positions and the rook-on-the-seventh principle. " +
					"On entering a rook endgame, first ask whether you can seize the seventh rank.",
			},
		},
		TrainingPlan: models.TrainingPlan{
			PrimaryFocus: "Your back-rank vulnerability comes first because it costs full points in games you otherwise played well. " +
				"Pawn timing and rook endgames decay slowly and leave time to recover; back-rank tactics end the game at once.",
			DailyPuzzles: []models.PuzzleDay{
				puzzleDay(models.Monday, "Back Rank Mate", "backRankMate",
					"Before each solve, find both sides' escape squares. This is the pattern that decided Game 3."),
				puzzleDay(models.Tuesday, "Rook Endgame", "rookEndgame",
					"Check whether the rook is active on the seventh rank or passive before calculating."),
				puzzleDay(models.Wednesday, "Hanging Piece", "hangingPiece",
					"Pawns pushed without piece support become hanging targets. Look at the board from your opponent's side."),
				puzzleDay(models.Thursday, "Pawn Endgame", "pawnEndgame",
					"Learn which queenside structures are lost before you trade into them."),
				puzzleDay(models.Friday, "Discovered Attack", "discoveredAttack",
					"Back-rank weakness is often hit by a discovered attack down the e- or d-file, as in Games 7 and 14."),
			},
			ConceptTopic:         "Lucena and Philidor Positions in Rook Endgames",
			ConceptYoutubeSearch: "Silman endgame course rook endings Lucena Philidor technique",
			OpeningAdjustment: "In the Queen's Gambit Declined as White, add h3 around moves 10-12 before any rook exchange on the e-file. " +
				"As Black in the Najdorf, hold back ...a5 and ...b5 until your queenside knight is developed.",
			WeeklyGoal: "Solve 20 backRankMate puzzles on Monday and Wednesday, 10 rookEndgame puzzles on Tuesday and Thursday at 70%+, " +
				"and in 5 rated rapid games create a luft square before move 20.",
		},
	}
}
