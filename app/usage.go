package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"example/chessdebrief/app/models"
)

func monthStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// enforceMonthlyQuota charges one report against the user's monthly
// allowance, creating the user row when it does not exist yet. It returns a
// quotaError without charging when the allowance is spent.
func enforceMonthlyQuota(ctx context.Context, userID string) (models.User, error) {
	if db == nil {
		return models.User{}, ErrNotConfigured
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	user, err := getUserForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := insertDefaultUser(ctx, tx, userID); err != nil {
				return models.User{}, err
			}
			user, err = getUserForUpdate(ctx, tx, userID)
		}
		if err != nil {
			return models.User{}, err
		}
	}

	currentMonth := monthStartUTC(time.Now())
	if user.UsagePeriodStart.Before(currentMonth) {
		user.ReportsUsedThisMonth = 0
		user.UsagePeriodStart = currentMonth
	}

	limit := user.Tier.Limits().ReportsPerMonth
	if limit >= 0 && user.ReportsUsedThisMonth+1 > limit {
		return user, quotaError{Tier: user.Tier, Limit: limit, Used: user.ReportsUsedThisMonth}
	}
	user.ReportsUsedThisMonth++

	if err := updateUserUsage(ctx, tx, userID, user.ReportsUsedThisMonth, user.UsagePeriodStart); err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// refundReport gives back a charge when the analysis could not be queued or
// the report failed.
func refundReport(ctx context.Context, userID string) error {
	if db == nil {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET reports_used_this_month = GREATEST(reports_used_this_month - 1, 0)
		WHERE id = $1;
	`, userID)
	return err
}

func getUserForUpdate(ctx context.Context, tx *sql.Tx, userID string) (models.User, error) {
	var user models.User
	err := tx.QueryRowContext(ctx, `
		SELECT tier, reports_used_this_month, usage_period_start
		FROM users
		WHERE id = $1
		FOR UPDATE;
	`, userID).Scan(&user.Tier, &user.ReportsUsedThisMonth, &user.UsagePeriodStart)
	if err != nil {
		return models.User{}, err
	}
	user.ID = userID
	return user, nil
}

func insertDefaultUser(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, tier, reports_used_this_month, usage_period_start)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING;
	`, userID, string(models.TierFree), 0, monthStartUTC(time.Now()))
	return err
}

func updateUserUsage(ctx context.Context, tx *sql.Tx, userID string, used int, start time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET reports_used_this_month = $1, usage_period_start = $2
		WHERE id = $3;
	`, used, start, userID)
	return err
}
