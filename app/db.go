package app

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

var db *sql.DB

//go:embed schema.sql
var schemaSQL string

// MustInitDB opens the global pool and applies the schema. Without a
// configured host the store stays disabled and live endpoints that need it
// answer 501.
func MustInitDB(cfg *config.Config) {
	dsn := cfg.DB.DSN()
	if dsn == "" {
		logger.Warn().Msg("POSTGRES_URL not set; running without a database")
		return
	}

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("sql.Open")
	}
	d.SetMaxOpenConns(10)
	d.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("db.Ping")
	}
	if err := EnsureSchema(ctx, d); err != nil {
		logger.Fatal().Err(err).Msg("apply schema")
	}

	logger.Info().Str("host", cfg.DB.URL).Str("db", cfg.DB.Name).Msg("connected to postgres")
	db = d
}

// EnsureSchema creates any missing tables. Every statement is idempotent.
func EnsureSchema(ctx context.Context, d *sql.DB) error {
	_, err := d.ExecContext(ctx, schemaSQL)
	return err
}

func saveGames(ctx context.Context, games []models.GameRecord) error {
	if db == nil {
		// Allow test runs without a backing DB.
		return nil
	}
	if len(games) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		CREATE TEMP TABLE tmp_games (
			id                    TEXT,
			user_id               TEXT,
			platform              TEXT,
			platform_game_id      TEXT,
			url                   TEXT,
			color                 TEXT,
			result                TEXT,
			opening               TEXT,
			time_control          TEXT,
			time_control_category TEXT,
			move_count            INT,
			moves                 TEXT,
			opponent              TEXT,
			played_at             TIMESTAMPTZ
		) ON COMMIT DROP;
	`)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"tmp_games",
		"id",
		"user_id",
		"platform",
		"platform_game_id",
		"url",
		"color",
		"result",
		"opening",
		"time_control",
		"time_control_category",
		"move_count",
		"moves",
		"opponent",
		"played_at",
	))
	if err != nil {
		return err
	}

	for _, g := range games {
		if _, err := stmt.ExecContext(ctx,
			g.ID,
			g.UserID,
			string(g.Platform),
			g.PlatformGameID,
			g.URL,
			string(g.Color),
			string(g.Result),
			g.Opening,
			g.TimeControl,
			string(g.TimeControlCategory),
			g.MoveCount,
			g.Moves,
			g.Opponent,
			g.PlayedAt,
		); err != nil {
			stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	// Records are immutable: a re-import of the same game is a no-op.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (
			id, user_id, platform, platform_game_id, url, color, result, opening,
			time_control, time_control_category, move_count, moves, opponent, played_at
		)
		SELECT
			id, user_id, platform, platform_game_id, url, color, result, opening,
			time_control, time_control_category, move_count, moves, opponent, played_at
		FROM tmp_games
		ON CONFLICT (user_id, url) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const gameColumns = `id, user_id, platform, platform_game_id, url, color, result, opening,
	time_control, time_control_category, move_count, moves, opponent, played_at, created_at`

func scanGames(rows *sql.Rows) ([]models.GameRecord, error) {
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var (
			g         models.GameRecord
			createdAt time.Time
		)
		if err := rows.Scan(
			&g.ID,
			&g.UserID,
			&g.Platform,
			&g.PlatformGameID,
			&g.URL,
			&g.Color,
			&g.Result,
			&g.Opening,
			&g.TimeControl,
			&g.TimeControlCategory,
			&g.MoveCount,
			&g.Moves,
			&g.Opponent,
			&g.PlayedAt,
			&createdAt,
		); err != nil {
			return nil, err
		}
		g.CreatedAt = &createdAt
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// loadRecentGames returns up to limit of the user's stored games, newest
// first. An empty tc matches every time control.
func loadRecentGames(ctx context.Context, userID string, platform models.Platform, tc models.TimeControl, limit int) ([]models.GameRecord, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE user_id = $1
		  AND platform = $2
		  AND ($3 = '' OR time_control_category = $3)
		ORDER BY played_at DESC
		LIMIT $4
	`, userID, string(platform), string(tc), limit)
	if err != nil {
		return nil, err
	}
	return scanGames(rows)
}

// loadGamesByIDs returns the user's games with the given ids in the order the
// ids are listed.
func loadGamesByIDs(ctx context.Context, userID string, ids []string) ([]models.GameRecord, error) {
	if db == nil || len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE user_id = $1
		  AND id = ANY($2)
		ORDER BY array_position($2, id)
	`, userID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanGames(rows)
}

func createReport(ctx context.Context, r models.AnalysisReport) error {
	if db == nil {
		return ErrNotConfigured
	}
	ratings, err := json.Marshal(r.Ratings)
	if err != nil {
		return err
	}
	var tc sql.NullString
	if r.TimeControl != nil {
		tc = sql.NullString{String: string(*r.TimeControl), Valid: true}
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO reports (id, user_id, platform, username, time_control, ratings, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8);
	`, r.ID, r.UserID, string(r.Platform), r.Username, tc, ratings, string(r.Status), r.CreatedAt)
	return err
}

// getReport loads one of the user's reports together with the ids of the
// games it was built from.
func getReport(ctx context.Context, userID, reportID string) (models.AnalysisReport, []string, error) {
	if db == nil {
		return models.AnalysisReport{}, nil, ErrNotConfigured
	}

	var (
		r                              models.AnalysisReport
		tc                             sql.NullString
		ratings, weaknesses, planBytes []byte
		gameIDs                        []string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, platform, username, time_control, ratings, games_analyzed,
		       weaknesses, training_plan, game_ids, status, created_at, updated_at
		FROM reports
		WHERE id = $1 AND user_id = $2;
	`, reportID, userID).Scan(
		&r.ID,
		&r.UserID,
		&r.Platform,
		&r.Username,
		&tc,
		&ratings,
		&r.GamesAnalyzed,
		&weaknesses,
		&planBytes,
		pq.Array(&gameIDs),
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AnalysisReport{}, nil, ErrReportNotFound
	}
	if err != nil {
		return models.AnalysisReport{}, nil, err
	}

	if tc.Valid {
		t := models.TimeControl(tc.String)
		r.TimeControl = &t
	}
	if err := json.Unmarshal(ratings, &r.Ratings); err != nil {
		return models.AnalysisReport{}, nil, fmt.Errorf("report %s ratings: %w", reportID, err)
	}
	if err := json.Unmarshal(weaknesses, &r.Weaknesses); err != nil {
		return models.AnalysisReport{}, nil, fmt.Errorf("report %s weaknesses: %w", reportID, err)
	}
	if err := json.Unmarshal(planBytes, &r.TrainingPlan); err != nil {
		return models.AnalysisReport{}, nil, fmt.Errorf("report %s training plan: %w", reportID, err)
	}
	return r, gameIDs, nil
}

func setReportStatus(ctx context.Context, reportID string, status models.AnalysisStatus) error {
	if db == nil {
		return ErrNotConfigured
	}
	res, err := db.ExecContext(ctx, `
		UPDATE reports
		SET status = $1, updated_at = now()
		WHERE id = $2;
	`, string(status), reportID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReportNotFound
	}
	return nil
}

// completeReport stores the coach's output and flips the report to complete.
func completeReport(ctx context.Context, r models.AnalysisReport, gameIDs []string) error {
	if db == nil {
		return ErrNotConfigured
	}
	ratings, err := json.Marshal(r.Ratings)
	if err != nil {
		return err
	}
	weaknesses, err := json.Marshal(r.Weaknesses)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(r.TrainingPlan)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE reports
		SET ratings = $1,
		    games_analyzed = $2,
		    weaknesses = $3,
		    training_plan = $4,
		    game_ids = $5,
		    status = $6,
		    error = NULL,
		    updated_at = now()
		WHERE id = $7;
	`, ratings, r.GamesAnalyzed, weaknesses, plan, pq.Array(gameIDs), string(models.StatusComplete), r.ID)
	return err
}

func failReport(ctx context.Context, reportID string, cause error) error {
	if db == nil {
		return ErrNotConfigured
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := db.ExecContext(ctx, `
		UPDATE reports
		SET status = $1, error = $2, updated_at = now()
		WHERE id = $3;
	`, string(models.StatusFailed), msg, reportID)
	return err
}
