package models

import "time"

type GameCitation struct {
	GameNumber int    `json:"game_number"`
	URL        string `json:"url"`
	GameID     string `json:"game_id,omitempty"`
}

// Weakness is one recurring pattern. Rank 1 is the most severe.
type Weakness struct {
	Rank          int            `json:"rank"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	GameCitations []GameCitation `json:"game_citations"`
	ActionableTip string         `json:"actionable_tip"`
}

type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// TrainingDays is the fixed Monday..Friday puzzle schedule.
var TrainingDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

type PuzzleDay struct {
	Day          Weekday `json:"day"`
	ThemeName    string  `json:"theme_name"`
	ThemeSlug    string  `json:"theme_slug"`
	ThemeURL     string  `json:"theme_url"`
	CoachingNote string  `json:"coaching_note"`
}

type TrainingPlan struct {
	PrimaryFocus         string      `json:"primary_focus"`
	DailyPuzzles         []PuzzleDay `json:"daily_puzzles"`
	ConceptTopic         string      `json:"concept_topic"`
	ConceptYoutubeSearch string      `json:"concept_youtube_search"`
	OpeningAdjustment    string      `json:"opening_adjustment"`
	WeeklyGoal           string      `json:"weekly_goal"`
}

type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusComplete   AnalysisStatus = "complete"
	StatusFailed     AnalysisStatus = "failed"
)

func (s AnalysisStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// AnalysisReport is the complete coaching output for one analysis session.
type AnalysisReport struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Platform      Platform       `json:"platform"`
	Username      string         `json:"username"`
	TimeControl   *TimeControl   `json:"time_control,omitempty"`
	Ratings       RatingsMap     `json:"ratings"`
	GamesAnalyzed int            `json:"games_analyzed"`
	Weaknesses    []Weakness     `json:"weaknesses"`
	TrainingPlan  TrainingPlan   `json:"training_plan"`
	Status        AnalysisStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type AnalysisRequest struct {
	Username    string      `json:"username"`
	Platform    Platform    `json:"platform"`
	TimeControl TimeControl `json:"time_control,omitempty"`
	MaxGames    int         `json:"max_games"`
}

type AnalysisTriggerResult struct {
	ReportID string `json:"report_id"`
}
