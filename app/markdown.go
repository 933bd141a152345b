package app

import (
	"fmt"
	"strings"
	"time"

	"example/chessdebrief/app/models"
	"example/chessdebrief/app/report"
)

var platformNames = map[models.Platform]string{
	models.PlatformLichess:  "Lichess",
	models.PlatformChessCom: "Chess.com",
}

// ReportFilename names the markdown debrief, e.g.
// "chess-magnus-chesscom-rapid-2026-02-28.md".
func ReportFilename(username string, platform models.Platform, tc models.TimeControl, date time.Time) string {
	category := "all"
	if tc != "" {
		category = strings.ReplaceAll(strings.ToLower(tc.Label()), " ", "-")
	}
	return fmt.Sprintf("chess-%s-%s-%s-%s.md", username, platformSlug(platform), category, date.Format(time.DateOnly))
}

// trendCell renders a rating delta as an arrow and magnitude.
func trendCell(prog int) string {
	ind := report.FormatProg(&prog)
	switch ind.Direction {
	case report.DirectionUp:
		return fmt.Sprintf("↑ %d", prog)
	case report.DirectionDown:
		return fmt.Sprintf("↓ %d", -prog)
	default:
		return ind.Symbol
	}
}

// RenderMarkdown writes a complete report as a standalone markdown document.
func RenderMarkdown(r models.AnalysisReport, games []models.GameRecord, date time.Time) string {
	var b strings.Builder

	category := "All"
	if r.TimeControl != nil {
		category = r.TimeControl.Label()
	}
	platform := platformNames[r.Platform]
	if platform == "" {
		platform = string(r.Platform)
	}

	fmt.Fprintf(&b, "# Chess Coach Report: %s\n\n", r.Username)
	fmt.Fprintf(&b, "**Date:** %s  \n", date.Format(time.DateOnly))
	fmt.Fprintf(&b, "**Platform:** %s  \n", platform)
	fmt.Fprintf(&b, "**Time Control:** %s\n\n", category)

	b.WriteString("## Ratings\n\n")
	b.WriteString("| Time Control | Rating | Trend | Games |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, v := range report.RatingViews(r.Ratings) {
		if !v.HasRating {
			fmt.Fprintf(&b, "| %s | %s | %s | 0 |\n", v.Label, report.Placeholder, report.Placeholder)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", v.Label, v.Rating, trendCell(r.Ratings[v.TimeControl].Prog), v.Games)
	}
	b.WriteString("\n")

	s := report.Summarize(games, r.GamesAnalyzed)
	fmt.Fprintf(&b, "**Games analyzed:** %d (%dW / %dL / %dD, %d%% wins)  \n", s.Total, s.Wins, s.Losses, s.Draws, s.WinRatePct)
	fmt.Fprintf(&b, "**Session score:** %d/100\n\n", s.Score)

	b.WriteString("## Game Analysis\n\n")
	for _, w := range report.RankWeaknesses(r.Weaknesses) {
		fmt.Fprintf(&b, "### %d. %s\n\n", w.Rank, w.Title)
		b.WriteString(w.Description)
		b.WriteString("\n\n")
		if len(w.GameCitations) > 0 {
			links := make([]string, len(w.GameCitations))
			for i, c := range w.GameCitations {
				links[i] = fmt.Sprintf("[Game %d](%s)", c.GameNumber, c.URL)
			}
			fmt.Fprintf(&b, "Seen in: %s\n\n", strings.Join(links, ", "))
		}
		fmt.Fprintf(&b, "**Tip:** %s\n\n", w.ActionableTip)
	}

	plan := r.TrainingPlan
	b.WriteString("## 1-Week Improvement Plan\n\n")
	if plan.PrimaryFocus != "" {
		fmt.Fprintf(&b, "**Primary focus:** %s\n\n", plan.PrimaryFocus)
	}
	if len(plan.DailyPuzzles) > 0 {
		b.WriteString("| Day | Theme | Note |\n")
		b.WriteString("|---|---|---|\n")
		for _, d := range plan.DailyPuzzles {
			fmt.Fprintf(&b, "| %s | [%s](%s) | %s |\n", d.Day, d.ThemeName, d.ThemeURL, strings.ReplaceAll(d.CoachingNote, "|", "/"))
		}
		b.WriteString("\n")
	}
	if plan.ConceptTopic != "" {
		fmt.Fprintf(&b, "**Concept to study:** %s (YouTube search: \"%s\")\n\n", plan.ConceptTopic, plan.ConceptYoutubeSearch)
	}
	if plan.OpeningAdjustment != "" {
		fmt.Fprintf(&b, "**Opening adjustment:** %s\n\n", plan.OpeningAdjustment)
	}
	if plan.WeeklyGoal != "" {
		fmt.Fprintf(&b, "**Weekly goal:** %s\n", plan.WeeklyGoal)
	}
	return b.String()
}
