package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
	"example/chessdebrief/auth"
)

// trendGames is how many Chess.com games feed a rating trend; the platform has
// no rating-history endpoint.
const trendGames = 100

// trendWindow is the span a rating trend covers, matching the mock series.
const trendWindow = 90 * 24 * time.Hour

// LiveDataSource reads the chess platforms, persists to postgres and hands
// analyses to the queue.
type LiveDataSource struct {
	queue Enqueuer
	now   func() time.Time
}

func NewLiveDataSource(queue Enqueuer) *LiveDataSource {
	return &LiveDataSource{queue: queue, now: time.Now}
}

func (s *LiveDataSource) Profile(ctx context.Context, claims *auth.Claims) (models.Profile, error) {
	return loadProfile(ctx, claims)
}

func (s *LiveDataSource) ImportGames(ctx context.Context, userID string, req models.ImportRequest) (models.ImportResult, error) {
	user, err := ensureUser(ctx, userID)
	if err != nil {
		return models.ImportResult{}, err
	}
	q, err := normalizeGameQuery(req.Username, req.Platform, req.TimeControl, req.MaxGames, user.Tier)
	if err != nil {
		return models.ImportResult{}, err
	}

	ratings, err := fetchRatings(ctx, q.Platform, q.Username)
	if err != nil {
		return models.ImportResult{}, err
	}
	games, err := fetchGames(ctx, userID, q)
	if err != nil {
		return models.ImportResult{}, err
	}

	if err := saveGames(ctx, games); err != nil {
		return models.ImportResult{}, err
	}
	if err := rememberPlatformUsername(ctx, userID, q.Platform, q.Username); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("failed to store platform username")
	}

	logger.Info().
		Str("user_id", userID).
		Str("platform", string(q.Platform)).
		Str("username", q.Username).
		Int("games", len(games)).
		Msg("games imported")

	if games == nil {
		games = []models.GameRecord{}
	}
	return models.ImportResult{ImportedCount: len(games), Games: games, Ratings: ratings}, nil
}

func (s *LiveDataSource) TriggerAnalysis(ctx context.Context, userID string, req models.AnalysisRequest) (models.AnalysisTriggerResult, error) {
	user, err := ensureUser(ctx, userID)
	if err != nil {
		return models.AnalysisTriggerResult{}, err
	}
	q, err := normalizeGameQuery(req.Username, req.Platform, req.TimeControl, req.MaxGames, user.Tier)
	if err != nil {
		return models.AnalysisTriggerResult{}, err
	}

	if _, err := enforceMonthlyQuota(ctx, userID); err != nil {
		return models.AnalysisTriggerResult{}, err
	}

	r := models.AnalysisReport{
		ID:        uuid.NewString(),
		UserID:    userID,
		Platform:  q.Platform,
		Username:  q.Username,
		Ratings:   models.RatingsMap{},
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if q.TimeControl != "" {
		tc := q.TimeControl
		r.TimeControl = &tc
	}
	if err := createReport(ctx, r); err != nil {
		s.refund(ctx, userID)
		return models.AnalysisTriggerResult{}, err
	}

	job := models.AnalysisJobMessage{
		ReportID:    r.ID,
		UserID:      userID,
		Username:    q.Username,
		Platform:    q.Platform,
		TimeControl: q.TimeControl,
		MaxGames:    q.MaxGames,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.refund(ctx, userID)
		if ferr := failReport(ctx, r.ID, err); ferr != nil {
			logger.Error().Err(ferr).Str("report_id", r.ID).Msg("failed to mark report failed")
		}
		return models.AnalysisTriggerResult{}, err
	}

	logger.Info().Str("report_id", r.ID).Str("user_id", userID).Msg("analysis queued")
	return models.AnalysisTriggerResult{ReportID: r.ID}, nil
}

func (s *LiveDataSource) refund(ctx context.Context, userID string) {
	if err := refundReport(context.WithoutCancel(ctx), userID); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to refund report")
	}
}

func (s *LiveDataSource) Report(ctx context.Context, userID, reportID string) (models.AnalysisReport, error) {
	r, _, err := getReport(ctx, userID, reportID)
	return r, err
}

func (s *LiveDataSource) ReportGames(ctx context.Context, userID, reportID string) ([]models.GameRecord, error) {
	_, ids, err := getReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	return loadGamesByIDs(ctx, userID, ids)
}

func (s *LiveDataSource) RatingTrend(ctx context.Context, q TrendQuery) ([]models.TrendPoint, error) {
	q.Username = strings.TrimSpace(q.Username)
	if !validUsername(q.Username) {
		return nil, invalid("username", "must be 2-30 letters, digits, '_' or '-'")
	}
	if q.TimeControl == "" {
		q.TimeControl = models.TimeControlRapid
	}
	if !q.TimeControl.Valid() {
		return nil, invalid("time_control", "unknown time control %q", q.TimeControl)
	}

	var (
		points []models.TrendPoint
		err    error
	)
	switch q.Platform {
	case models.PlatformLichess:
		points, err = fetchLichessTrend(ctx, q.Username, q.TimeControl)
	case models.PlatformChessCom:
		var games []models.ChessComGame
		games, err = fetchChessComGames(ctx, q.Username, trendGames, q.TimeControl)
		if err == nil {
			points = chessComTrend(q.Username, games)
		}
	default:
		return nil, invalid("platform", "must be lichess or chess.com")
	}
	if err != nil {
		return nil, err
	}
	return trimTrend(points, s.now().UTC().Add(-trendWindow)), nil
}

// trimTrend drops points dated before since. Points with an unreadable date
// are dropped too.
func trimTrend(points []models.TrendPoint, since time.Time) []models.TrendPoint {
	cutoff := since.Format(time.DateOnly)
	var out []models.TrendPoint
	for _, p := range points {
		if _, err := time.Parse(time.DateOnly, p.Date); err != nil {
			continue
		}
		if p.Date >= cutoff {
			out = append(out, p)
		}
	}
	return out
}

func fetchRatings(ctx context.Context, platform models.Platform, username string) (models.RatingsMap, error) {
	if platform == models.PlatformChessCom {
		return fetchChessComRatings(ctx, username)
	}
	return fetchLichessRatings(ctx, username)
}

// fetchGames downloads up to q.MaxGames games, newest first, and assigns them
// to userID.
func fetchGames(ctx context.Context, userID string, q gameQuery) ([]models.GameRecord, error) {
	var (
		games []models.GameRecord
		err   error
	)
	switch q.Platform {
	case models.PlatformChessCom:
		var raw []models.ChessComGame
		raw, err = fetchChessComGames(ctx, q.Username, q.MaxGames, q.TimeControl)
		games = chessComRecords(q.Username, raw)
	default:
		games, err = fetchLichessGames(ctx, q.Username, q.MaxGames, q.TimeControl)
	}
	if err != nil {
		return nil, err
	}

	if len(games) > q.MaxGames {
		games = games[:q.MaxGames]
	}
	for i := range games {
		games[i].UserID = userID
		games[i].ID = gameUUID(userID, games[i].URL)
	}
	return games, nil
}
