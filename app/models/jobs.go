package models

// AnalysisJobMessage is the SQS payload that asks the worker to fill a pending report.
type AnalysisJobMessage struct {
	ReportID    string      `json:"report_id"`
	UserID      string      `json:"user_id"`
	Username    string      `json:"username"`
	Platform    Platform    `json:"platform"`
	TimeControl TimeControl `json:"time_control,omitempty"`
	MaxGames    int         `json:"max_games"`
}
