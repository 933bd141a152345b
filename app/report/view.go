package report

import "example/chessdebrief/app/models"

// View is everything the report page derives from a stored report.
type View struct {
	Summary    Summary          `json:"summary"`
	Weaknesses []RankedWeakness `json:"weaknesses"`
	Ratings    []RatingView     `json:"ratings"`
	Problems   []Problem        `json:"problems,omitempty"`
}

// BuildView derives the report page from r and the games it was built from.
func BuildView(r models.AnalysisReport, games []models.GameRecord) View {
	return View{
		Summary:    Summarize(games, r.GamesAnalyzed),
		Weaknesses: RankWeaknesses(r.Weaknesses),
		Ratings:    RatingViews(r.Ratings),
		Problems:   Validate(r),
	}
}
