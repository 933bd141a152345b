package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"example/chessdebrief/app/models"
	"example/chessdebrief/auth"
)

// upsertUserFromClaims creates the user row on first sight and refreshes the
// login timestamp and email on every later call.
func upsertUserFromClaims(ctx context.Context, claims *auth.Claims) error {
	if db == nil {
		return nil
	}
	if claims == nil || claims.Subject == "" {
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, last_login, tier, reports_used_this_month, usage_period_start)
		VALUES ($1, $2, $3, now(), $4, 0, $5)
		ON CONFLICT (id) DO UPDATE
		SET last_login = now(),
		    email = COALESCE(EXCLUDED.email, users.email);
	`,
		claims.Subject,
		nullIfEmpty(claims.Email),
		nullIfEmpty(claims.DisplayName),
		string(models.TierFree),
		monthStartUTC(time.Now()),
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

const userColumns = `id, COALESCE(email, ''), COALESCE(display_name, ''), COALESCE(lichess_username, ''),
	COALESCE(chess_com_username, ''), tier, COALESCE(stripe_customer_id, ''),
	reports_used_this_month, usage_period_start`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.LichessUsername,
		&u.ChessComUsername,
		&u.Tier,
		&u.StripeCustomerID,
		&u.ReportsUsedThisMonth,
		&u.UsagePeriodStart,
	)
	return u, err
}

func getUser(ctx context.Context, userID string) (models.User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, userID))
}

// loadProfile returns the caller's user row, creating it when missing and
// rolling the usage counter over when a new month has started.
func loadProfile(ctx context.Context, claims *auth.Claims) (models.Profile, error) {
	if db == nil {
		return models.Profile{}, ErrNotConfigured
	}

	user, err := getUser(ctx, claims.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		if err := upsertUserFromClaims(ctx, claims); err != nil {
			return models.Profile{}, err
		}
		user, err = getUser(ctx, claims.Subject)
	}
	if err != nil {
		return models.Profile{}, err
	}

	currentMonth := monthStartUTC(time.Now())
	if user.UsagePeriodStart.Before(currentMonth) {
		user.ReportsUsedThisMonth = 0
		user.UsagePeriodStart = currentMonth
		if _, err := db.ExecContext(ctx, `
			UPDATE users
			SET reports_used_this_month = $1, usage_period_start = $2
			WHERE id = $3;
		`, 0, currentMonth, user.ID); err != nil {
			return models.Profile{}, err
		}
	}
	return models.NewProfile(user), nil
}

// rememberPlatformUsername stores the last username the user imported for a
// platform so the dashboard can prefill it.
func rememberPlatformUsername(ctx context.Context, userID string, platform models.Platform, username string) error {
	if db == nil {
		return nil
	}
	column := "lichess_username"
	if platform == models.PlatformChessCom {
		column = "chess_com_username"
	}
	_, err := db.ExecContext(ctx, `UPDATE users SET `+column+` = $1 WHERE id = $2;`, username, userID)
	return err
}

// ensureUser returns the user row, creating a free-tier row when missing.
func ensureUser(ctx context.Context, userID string) (models.User, error) {
	if db == nil {
		return models.User{ID: userID, Tier: models.TierFree}, nil
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, tier, reports_used_this_month, usage_period_start)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (id) DO NOTHING;
	`, userID, string(models.TierFree), monthStartUTC(time.Now()))
	if err != nil {
		return models.User{}, err
	}
	return getUser(ctx, userID)
}
