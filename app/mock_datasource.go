package app

import (
	"context"
	"strings"
	"time"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/models"
	"example/chessdebrief/auth"
)

// MockDataSource serves fixtures after a simulated network delay so the
// dashboard can be developed without any backing service.
type MockDataSource struct {
	latency  time.Duration
	userID   string
	userName string
}

func NewMockDataSource(cfg config.MockConfig) *MockDataSource {
	return &MockDataSource{
		latency:  time.Duration(cfg.LatencyMS) * time.Millisecond,
		userID:   cfg.UserID,
		userName: cfg.UserName,
	}
}

func (m *MockDataSource) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MockDataSource) Profile(ctx context.Context, claims *auth.Claims) (models.Profile, error) {
	if err := m.wait(ctx, m.latency); err != nil {
		return models.Profile{}, err
	}
	user := models.User{
		ID:               m.userID,
		Email:            "player@chessdebrief.com",
		DisplayName:      m.userName,
		LichessUsername:  m.userName,
		Tier:             models.TierFree,
		UsagePeriodStart: monthStartUTC(time.Now()),
	}
	if claims != nil && claims.Email != "" {
		user.Email = claims.Email
	}
	return models.NewProfile(user), nil
}

func (m *MockDataSource) ImportGames(ctx context.Context, userID string, req models.ImportRequest) (models.ImportResult, error) {
	if _, err := normalizeGameQuery(req.Username, req.Platform, req.TimeControl, req.MaxGames, models.TierElite); err != nil {
		return models.ImportResult{}, err
	}
	if err := m.wait(ctx, m.latency); err != nil {
		return models.ImportResult{}, err
	}
	games := MockGames()
	return models.ImportResult{ImportedCount: len(games), Games: games, Ratings: MockRatings()}, nil
}

func (m *MockDataSource) TriggerAnalysis(ctx context.Context, userID string, req models.AnalysisRequest) (models.AnalysisTriggerResult, error) {
	if _, err := normalizeGameQuery(req.Username, req.Platform, req.TimeControl, req.MaxGames, models.TierElite); err != nil {
		return models.AnalysisTriggerResult{}, err
	}
	// Analysis takes noticeably longer than reads.
	if err := m.wait(ctx, 2*m.latency); err != nil {
		return models.AnalysisTriggerResult{}, err
	}
	return models.AnalysisTriggerResult{ReportID: MockReportID}, nil
}

// Report returns the fixture for any non-empty id, carrying that id.
func (m *MockDataSource) Report(ctx context.Context, userID, reportID string) (models.AnalysisReport, error) {
	if strings.TrimSpace(reportID) == "" {
		return models.AnalysisReport{}, ErrReportNotFound
	}
	if err := m.wait(ctx, m.latency); err != nil {
		return models.AnalysisReport{}, err
	}
	r := MockReport(m.userID, m.userName)
	r.ID = reportID
	return r, nil
}

func (m *MockDataSource) ReportGames(ctx context.Context, userID, reportID string) ([]models.GameRecord, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, ErrReportNotFound
	}
	return MockGames(), nil
}

func (m *MockDataSource) RatingTrend(ctx context.Context, q TrendQuery) ([]models.TrendPoint, error) {
	if err := m.wait(ctx, m.latency); err != nil {
		return nil, err
	}
	return MockRapidTrend(), nil
}
