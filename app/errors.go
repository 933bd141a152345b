package app

import (
	"errors"
	"fmt"

	"example/chessdebrief/app/models"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoGames        = errors.New("no games found")
	ErrNotConfigured  = errors.New("not configured")
)

// validationError is a client mistake in a request body or query.
type validationError struct {
	Field   string
	Message string
}

func (e validationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return validationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// quotaError is returned when a user has used every report their tier allows this month.
type quotaError struct {
	Tier  models.SubscriptionTier
	Limit int
	Used  int
}

func (e quotaError) Error() string {
	return fmt.Sprintf("monthly report limit reached (%d of %d on the %s plan)", e.Used, e.Limit, e.Tier)
}
