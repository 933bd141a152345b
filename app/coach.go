package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

const lichessTrainingURL = "https://lichess.org/training/"

// puzzleThemes are the Lichess training themes the coach may assign, keyed by
// slug.
var puzzleThemes = map[string]string{
	"fork":             "Fork",
	"pin":              "Pin",
	"skewer":           "Skewer",
	"mateIn1":          "Mate in 1",
	"mateIn2":          "Mate in 2",
	"mateIn3":          "Mate in 3",
	"endgame":          "Endgame",
	"rookEndgame":      "Rook Endgame",
	"queenEndgame":     "Queen Endgame",
	"pawnEndgame":      "Pawn Endgame",
	"kingsideAttack":   "Kingside Attack",
	"queensideAttack":  "Queenside Attack",
	"backRankMate":     "Back Rank Mate",
	"discoveredAttack": "Discovered Attack",
	"doubleCheck":      "Double Check",
	"deflection":       "Deflection",
	"attraction":       "Attraction",
	"clearance":        "Clearance",
	"interference":     "Interference",
	"xRayAttack":       "X-Ray Attack",
	"zugzwang":         "Zugzwang",
	"sacrifice":        "Sacrifice",
	"hangingPiece":     "Hanging Piece",
	"advancedPawn":     "Advanced Pawn",
	"equality":         "Equality",
	"trappedPiece":     "Trapped Piece",
	"exposedKing":      "Exposed King",
	"quietMove":        "Quiet Move",
}

func themeSlugs() []string {
	slugs := make([]string, 0, len(puzzleThemes))
	for s := range puzzleThemes {
		slugs = append(slugs, s)
	}
	slices.Sort(slugs)
	return slugs
}

// CoachInput is everything the coach sees about one player.
type CoachInput struct {
	Username    string
	Platform    models.Platform
	TimeControl models.TimeControl
	Ratings     models.RatingsMap
	Games       []models.GameRecord // newest first
}

// CoachOutput is the analytical half of a report.
type CoachOutput struct {
	Weaknesses   []models.Weakness   `json:"weaknesses"`
	TrainingPlan models.TrainingPlan `json:"training_plan"`
}

// Coach turns a player's games into weaknesses and a training plan.
type Coach interface {
	Debrief(ctx context.Context, in CoachInput) (CoachOutput, error)
}

type AnthropicCoach struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCoach returns ErrNotConfigured when no API key is set.
func NewAnthropicCoach(cfg config.AnthropicConfig) (*AnthropicCoach, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY: %w", ErrNotConfigured)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicCoach{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

func (c *AnthropicCoach) Debrief(ctx context.Context, in CoachInput) (CoachOutput, error) {
	if len(in.Games) == 0 {
		return CoachOutput{}, ErrNoGames
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: coachSystemPrompt()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildCoachPrompt(in))),
		},
	})
	if err != nil {
		return CoachOutput{}, fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	logger.Debug().
		Str("model", c.model).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Int("chars", text.Len()).
		Msg("coach reply")

	return parseCoachReply(text.String(), in.Games)
}

func coachSystemPrompt() string {
	return `You are a chess coach reviewing a club player's recent games.

Find the three most important recurring weaknesses. Each must be a pattern that shows up in
several games, not a one-off blunder. Cite the games that show it by their number. Give each
weakness one concrete habit the player can apply in their next game.

Then build a Monday to Friday puzzle plan on Lichess that trains those weaknesses, most severe
first. Use only these theme slugs: ` + strings.Join(themeSlugs(), ", ") + `.

Answer with a single JSON object and nothing else:
{
  "weaknesses": [
    {"rank": 1, "title": "...", "description": "...",
     "game_citations": [{"game_number": 3}], "actionable_tip": "..."}
  ],
  "training_plan": {
    "primary_focus": "...",
    "daily_puzzles": [
      {"day": "Monday", "theme_name": "...", "theme_slug": "...", "coaching_note": "..."}
    ],
    "concept_topic": "...",
    "concept_youtube_search": "...",
    "opening_adjustment": "...",
    "weekly_goal": "..."
  }
}
Rank 1 is the most severe. daily_puzzles has exactly five entries, Monday through Friday.`
}

func buildCoachPrompt(in CoachInput) string {
	var b strings.Builder
	category := "all time controls"
	if in.TimeControl != "" {
		category = in.TimeControl.Label()
	}
	fmt.Fprintf(&b, "Player: %s on %s, %s\n", in.Username, in.Platform, category)

	b.WriteString("Ratings:")
	for _, tc := range models.TimeControls {
		entry, ok := in.Ratings[tc]
		if !ok || entry.Rating == nil {
			continue
		}
		fmt.Fprintf(&b, " %s %d (%d games, prog %+d);", tc.Label(), *entry.Rating, entry.Games, entry.Prog)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Last %d games, newest first:\n\n", len(in.Games))
	for i, g := range in.Games {
		b.WriteString(gameLine(i+1, g))
		b.WriteString("\n")
	}
	return b.String()
}

// gameLine renders one game as the coach sees it: a summary line followed by
// the move list.
func gameLine(n int, g models.GameRecord) string {
	line := fmt.Sprintf("Game %2d | %s | %s | Moves: %d | TC: %s | Opening: %s | URL: %s",
		n, g.Color, g.Result, g.MoveCount, g.TimeControl, g.Opening, g.URL)
	if g.Moves != "" {
		line += "\n  " + g.Moves
	}
	return line
}

// parseCoachReply decodes the model's JSON answer and ties it back to games.
func parseCoachReply(text string, games []models.GameRecord) (CoachOutput, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return CoachOutput{}, err
	}
	var out CoachOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return CoachOutput{}, fmt.Errorf("decode coach reply: %w", err)
	}
	return normalizeCoachOutput(out, games)
}

// extractJSON returns the outermost JSON object in text, ignoring any code
// fences or prose around it.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", errors.New("coach reply contains no JSON object")
	}
	return text[start : end+1], nil
}

// normalizeCoachOutput renumbers weaknesses 1..n in the model's order, fills
// citation URLs from the games list, and pins the puzzle plan to the Monday
// to Friday schedule with canonical Lichess URLs.
func normalizeCoachOutput(out CoachOutput, games []models.GameRecord) (CoachOutput, error) {
	slices.SortStableFunc(out.Weaknesses, func(a, b models.Weakness) int { return a.Rank - b.Rank })
	if len(out.Weaknesses) > 3 {
		out.Weaknesses = out.Weaknesses[:3]
	}
	for i := range out.Weaknesses {
		w := &out.Weaknesses[i]
		w.Rank = i + 1
		w.GameCitations = resolveCitations(w.GameCitations, games)
		if len(w.GameCitations) == 0 {
			return CoachOutput{}, fmt.Errorf("weakness %q cites no valid game", w.Title)
		}
	}

	puzzles, err := normalizePuzzles(out.TrainingPlan.DailyPuzzles)
	if err != nil {
		return CoachOutput{}, err
	}
	out.TrainingPlan.DailyPuzzles = puzzles
	return out, nil
}

func resolveCitations(cites []models.GameCitation, games []models.GameRecord) []models.GameCitation {
	out := make([]models.GameCitation, 0, len(cites))
	seen := map[int]bool{}
	for _, c := range cites {
		if c.GameNumber < 1 || c.GameNumber > len(games) || seen[c.GameNumber] {
			continue
		}
		seen[c.GameNumber] = true
		g := games[c.GameNumber-1]
		out = append(out, models.GameCitation{GameNumber: c.GameNumber, URL: g.URL, GameID: g.ID})
	}
	return out
}

func normalizePuzzles(days []models.PuzzleDay) ([]models.PuzzleDay, error) {
	byDay := map[models.Weekday]models.PuzzleDay{}
	for _, d := range days {
		byDay[canonicalDay(d.Day)] = d
	}

	out := make([]models.PuzzleDay, 0, len(models.TrainingDays))
	for i, day := range models.TrainingDays {
		d, ok := byDay[day]
		if !ok {
			if i >= len(days) {
				return nil, fmt.Errorf("training plan has no puzzle for %s", day)
			}
			d = days[i]
		}
		slug, ok := canonicalSlug(d.ThemeSlug)
		if !ok {
			return nil, fmt.Errorf("%s: unknown puzzle theme %q", day, d.ThemeSlug)
		}
		d.Day = day
		d.ThemeSlug = slug
		d.ThemeURL = lichessTrainingURL + slug
		if d.ThemeName == "" {
			d.ThemeName = puzzleThemes[slug]
		}
		out = append(out, d)
	}
	return out, nil
}

func canonicalDay(d models.Weekday) models.Weekday {
	for _, day := range models.TrainingDays {
		if strings.EqualFold(string(day), strings.TrimSpace(string(d))) {
			return day
		}
	}
	return d
}

func canonicalSlug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, ok := puzzleThemes[s]; ok {
		return s, true
	}
	for slug := range puzzleThemes {
		if strings.EqualFold(slug, s) {
			return slug, true
		}
	}
	return "", false
}
