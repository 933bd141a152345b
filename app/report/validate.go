package report

import (
	"fmt"

	"example/chessdebrief/app/models"
)

// Problem describes one schema violation in a report. Problems are reported,
// never enforced: the report still renders.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.Field + ": " + p.Message }

// Validate checks r against the report schema and returns every problem found.
func Validate(r models.AnalysisReport) []Problem {
	var problems []Problem
	add := func(field, format string, args ...any) {
		problems = append(problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !r.Platform.Valid() {
		add("platform", "unknown platform %q", r.Platform)
	}
	if !r.Status.Valid() {
		add("status", "unknown status %q", r.Status)
	}
	if r.TimeControl != nil && !r.TimeControl.Valid() {
		add("time_control", "unknown time control %q", *r.TimeControl)
	}

	for tc, entry := range r.Ratings {
		if entry.Games < 0 {
			add("ratings."+string(tc)+".games", "negative game count %d", entry.Games)
		}
	}

	if r.GamesAnalyzed < 0 {
		add("games_analyzed", "negative count %d", r.GamesAnalyzed)
	} else if r.GamesAnalyzed == 0 && len(r.Weaknesses) > 0 {
		add("games_analyzed", "weaknesses present but no games analyzed")
	}

	seen := map[int]bool{}
	for i, w := range r.Weaknesses {
		field := fmt.Sprintf("weaknesses[%d]", i)
		if w.Rank < 1 || w.Rank > 3 {
			add(field+".rank", "rank %d outside 1..3", w.Rank)
		}
		if seen[w.Rank] {
			add(field+".rank", "duplicate rank %d", w.Rank)
		}
		seen[w.Rank] = true
		if len(w.GameCitations) == 0 {
			add(field+".game_citations", "no game cited")
		}
	}

	// Only complete reports carry a training plan.
	if r.Status == models.StatusComplete {
		puzzles := r.TrainingPlan.DailyPuzzles
		if len(puzzles) != len(models.TrainingDays) {
			add("training_plan.daily_puzzles", "expected %d days, got %d", len(models.TrainingDays), len(puzzles))
		}
		for i, p := range puzzles {
			if i < len(models.TrainingDays) && p.Day != models.TrainingDays[i] {
				add(fmt.Sprintf("training_plan.daily_puzzles[%d].day", i), "expected %s, got %q", models.TrainingDays[i], p.Day)
			}
		}
	}

	return problems
}
