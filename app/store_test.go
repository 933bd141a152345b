package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example/chessdebrief/app/models"
)

// withMockDB swaps the package pool for a sqlmock connection for one test.
func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	d, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	prev := db
	db = d
	t.Cleanup(func() {
		db = prev
		d.Close()
	})
	return mock
}

var reportColumns = []string{
	"id", "user_id", "platform", "username", "time_control", "ratings", "games_analyzed",
	"weaknesses", "training_plan", "game_ids", "status", "created_at", "updated_at",
}

func TestGetReport(t *testing.T) {
	mock := withMockDB(t)
	fixture := MockReport("u1", "ChessPlayer42")

	ratings, _ := json.Marshal(fixture.Ratings)
	weaknesses, _ := json.Marshal(fixture.Weaknesses)
	plan, _ := json.Marshal(fixture.TrainingPlan)
	created := time.Date(2026, 2, 28, 10, 5, 0, 0, time.UTC)

	mock.ExpectQuery("FROM reports").
		WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(
			"r1", "u1", "lichess", "ChessPlayer42", "rapid", ratings, 15,
			weaknesses, plan, []byte("{game-001,game-002}"), "complete", created, created,
		))

	r, ids, err := getReport(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, models.PlatformLichess, r.Platform)
	require.NotNil(t, r.TimeControl)
	assert.Equal(t, models.TimeControlRapid, *r.TimeControl)
	assert.Equal(t, fixture.Weaknesses, r.Weaknesses)
	assert.Equal(t, fixture.TrainingPlan, r.TrainingPlan)
	assert.Equal(t, models.StatusComplete, r.Status)
	assert.Equal(t, []string{"game-001", "game-002"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportPendingHasNoTimeControl(t *testing.T) {
	mock := withMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("FROM reports").
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(
			"r2", "u1", "chess.com", "someone", nil, []byte(`{}`), 0,
			[]byte(`[]`), []byte(`{}`), []byte("{}"), "pending", now, now,
		))

	r, ids, err := getReport(context.Background(), "u1", "r2")
	require.NoError(t, err)
	assert.Nil(t, r.TimeControl)
	assert.Empty(t, r.Weaknesses)
	assert.Empty(t, ids)
	assert.Equal(t, models.StatusPending, r.Status)
}

func TestGetReportNotFound(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM reports").
		WithArgs("missing", "u1").
		WillReturnRows(sqlmock.NewRows(reportColumns))

	_, _, err := getReport(context.Background(), "u1", "missing")
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("getReport err = %v, want ErrReportNotFound", err)
	}
}

func TestStoreWithoutDB(t *testing.T) {
	prev := db
	db = nil
	t.Cleanup(func() { db = prev })

	ctx := context.Background()
	if err := createReport(ctx, models.AnalysisReport{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("createReport err = %v, want ErrNotConfigured", err)
	}
	if _, err := enforceMonthlyQuota(ctx, "u1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("enforceMonthlyQuota err = %v, want ErrNotConfigured", err)
	}
	if err := saveGames(ctx, MockGames()); err != nil {
		t.Fatalf("saveGames without db = %v, want nil", err)
	}
	games, err := loadRecentGames(ctx, "u1", models.PlatformLichess, "", 10)
	if err != nil || games != nil {
		t.Fatalf("loadRecentGames without db = (%v, %v), want (nil, nil)", games, err)
	}
	u, err := ensureUser(ctx, "u1")
	if err != nil || u.Tier != models.TierFree {
		t.Fatalf("ensureUser without db = (%+v, %v)", u, err)
	}
}

func TestCreateReport(t *testing.T) {
	mock := withMockDB(t)
	tc := models.TimeControlBlitz
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO reports").
		WithArgs("r1", "u1", "lichess", "ChessPlayer42", "blitz", sqlmock.AnyArg(), "pending", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := createReport(context.Background(), models.AnalysisReport{
		ID:          "r1",
		UserID:      "u1",
		Platform:    models.PlatformLichess,
		Username:    "ChessPlayer42",
		TimeControl: &tc,
		Ratings:     MockRatings(),
		Status:      models.StatusPending,
		CreatedAt:   created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReportStatusMissingReport(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("UPDATE reports").
		WithArgs("processing", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := setReportStatus(context.Background(), "gone", models.StatusProcessing)
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("setReportStatus err = %v, want ErrReportNotFound", err)
	}
}

func TestFailReport(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("UPDATE reports").
		WithArgs("failed", "coach: not configured", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, failReport(context.Background(), "r1", errors.New("coach: not configured")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveGamesCopiesThroughTempTable(t *testing.T) {
	mock := withMockDB(t)
	games := MockGames()[:2]

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE tmp_games").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(`COPY "tmp_games"`)
	for _, g := range games {
		mock.ExpectExec(`COPY "tmp_games"`).
			WithArgs(g.ID, g.UserID, "lichess", g.PlatformGameID, g.URL, string(g.Color), string(g.Result),
				g.Opening, g.TimeControl, "rapid", g.MoveCount, g.Moves, g.Opponent, g.PlayedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`COPY "tmp_games"`).WithArgs().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO games").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, saveGames(context.Background(), games))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var gameColumnNames = []string{
	"id", "user_id", "platform", "platform_game_id", "url", "color", "result", "opening",
	"time_control", "time_control_category", "move_count", "moves", "opponent", "played_at", "created_at",
}

func TestLoadRecentGames(t *testing.T) {
	mock := withMockDB(t)
	played := time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM games").
		WithArgs("u1", "lichess", "", 20).
		WillReturnRows(sqlmock.NewRows(gameColumnNames).AddRow(
			"g1", "u1", "lichess", "ab1def2g", "https://lichess.org/ab1def2g", "White", "Win", "Italian Game",
			"600+0", "rapid", 34, "1.e4 e5", "opponent1", played, played,
		))

	games, err := loadRecentGames(context.Background(), "u1", models.PlatformLichess, "", 20)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, models.ResultWin, games[0].Result)
	assert.Equal(t, models.TimeControlRapid, games[0].TimeControlCategory)
	require.NotNil(t, games[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnforceMonthlyQuota(t *testing.T) {
	thisMonth := monthStartUTC(time.Now())
	usageColumns := []string{"tier", "reports_used_this_month", "usage_period_start"}

	t.Run("charges one report", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow("pro", 2, thisMonth))
		mock.ExpectExec("UPDATE users").WithArgs(3, thisMonth, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		user, err := enforceMonthlyQuota(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, user.ReportsUsedThisMonth)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("limit reached", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow("free", 1, thisMonth))
		mock.ExpectRollback()

		_, err := enforceMonthlyQuota(context.Background(), "u1")
		var qerr quotaError
		require.True(t, errors.As(err, &qerr), "err = %v", err)
		assert.Equal(t, quotaError{Tier: models.TierFree, Limit: 1, Used: 1}, qerr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new month resets usage", func(t *testing.T) {
		mock := withMockDB(t)
		lastYear := thisMonth.AddDate(-1, 0, 0)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow("free", 1, lastYear))
		mock.ExpectExec("UPDATE users").WithArgs(1, thisMonth, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		user, err := enforceMonthlyQuota(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, thisMonth, user.UsagePeriodStart)
	})

	t.Run("elite is unlimited", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow("elite", 500, thisMonth))
		mock.ExpectExec("UPDATE users").WithArgs(501, thisMonth, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := enforceMonthlyQuota(context.Background(), "u1")
		require.NoError(t, err)
	})

	t.Run("creates missing user", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("new").WillReturnRows(sqlmock.NewRows(usageColumns))
		mock.ExpectExec("INSERT INTO users").WithArgs("new", "free", 0, thisMonth).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FOR UPDATE").WithArgs("new").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow("free", 0, thisMonth))
		mock.ExpectExec("UPDATE users").WithArgs(1, thisMonth, "new").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		user, err := enforceMonthlyQuota(context.Background(), "new")
		require.NoError(t, err)
		assert.Equal(t, 1, user.ReportsUsedThisMonth)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMonthStartUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2026-03-01 05:00 at UTC+9 is still February in UTC.
	got := monthStartUTC(time.Date(2026, 3, 1, 5, 0, 0, 0, loc))
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("monthStartUTC = %v, want %v", got, want)
	}
}
