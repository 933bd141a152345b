package app

import (
	"context"
	"strings"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
	"example/chessdebrief/auth"
)

const (
	defaultMaxGames = 20
	maxGamesCeiling = 50
)

// DataSource serves every data-producing endpoint. One implementation is
// chosen at startup: MockDataSource serves fixtures, LiveDataSource talks to
// the chess platforms, postgres and the analysis queue.
type DataSource interface {
	Profile(ctx context.Context, claims *auth.Claims) (models.Profile, error)
	ImportGames(ctx context.Context, userID string, req models.ImportRequest) (models.ImportResult, error)
	TriggerAnalysis(ctx context.Context, userID string, req models.AnalysisRequest) (models.AnalysisTriggerResult, error)
	Report(ctx context.Context, userID, reportID string) (models.AnalysisReport, error)
	ReportGames(ctx context.Context, userID, reportID string) ([]models.GameRecord, error)
	RatingTrend(ctx context.Context, q TrendQuery) ([]models.TrendPoint, error)
}

// TrendQuery selects one player's rating series.
type TrendQuery struct {
	Platform    models.Platform
	Username    string
	TimeControl models.TimeControl
}

// NewDataSource picks the implementation for cfg. A nil queue makes the live
// source run analyses in-process with coach.
func NewDataSource(cfg *config.Config, coach Coach, queue Enqueuer) DataSource {
	if !cfg.UseRealAPI {
		return NewMockDataSource(cfg.Mock)
	}
	if queue == nil {
		logger.Warn().Msg("QUEUE_URL not set; analyses run inside the API process")
		queue = InlineEnqueuer{Run: func(ctx context.Context, job models.AnalysisJobMessage) error {
			return ProcessAnalysisJob(ctx, coach, job)
		}}
	}
	return NewLiveDataSource(queue)
}

// gameQuery is a validated import or analysis request.
type gameQuery struct {
	Username    string
	Platform    models.Platform
	TimeControl models.TimeControl
	MaxGames    int
}

// normalizeGameQuery validates the shared request fields and clamps MaxGames to
// the tier's import limit.
func normalizeGameQuery(username string, platform models.Platform, tc models.TimeControl, maxGames int, tier models.SubscriptionTier) (gameQuery, error) {
	q := gameQuery{
		Username:    strings.TrimSpace(username),
		Platform:    models.Platform(strings.ToLower(string(platform))),
		TimeControl: models.TimeControl(strings.ToLower(string(tc))),
		MaxGames:    maxGames,
	}

	if !validUsername(q.Username) {
		return q, invalid("username", "must be 2-30 letters, digits, '_' or '-'")
	}
	if !q.Platform.Valid() {
		return q, invalid("platform", "must be lichess or chess.com")
	}
	if q.TimeControl != "" {
		if !q.TimeControl.Valid() {
			return q, invalid("time_control", "unknown time control %q", tc)
		}
		if q.TimeControl == models.TimeControlDaily && q.Platform != models.PlatformChessCom {
			return q, invalid("time_control", "daily is only offered on chess.com; use classical for lichess")
		}
		if q.TimeControl == models.TimeControlClassical && q.Platform != models.PlatformLichess {
			return q, invalid("time_control", "classical is only offered on lichess; use daily for chess.com")
		}
	}

	if q.MaxGames == 0 {
		q.MaxGames = defaultMaxGames
	}
	if q.MaxGames < 1 || q.MaxGames > maxGamesCeiling {
		return q, invalid("max_games", "must be between 1 and %d", maxGamesCeiling)
	}
	q.MaxGames = min(q.MaxGames, tier.Limits().MaxImportGames)
	return q, nil
}
