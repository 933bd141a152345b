package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
	"example/chessdebrief/app/report"
)

// jobTimeout bounds one analysis; the queue's visibility timeout must exceed it.
const jobTimeout = 2 * time.Minute

// ProcessAnalysisJob fills the pending report named by job. Analysis failures
// are recorded on the report and are not returned; an error means the report
// itself could not be updated and the job should be retried.
func ProcessAnalysisJob(ctx context.Context, coach Coach, job models.AnalysisJobMessage) error {
	log := logger.Get().With().Str("report_id", job.ReportID).Str("user_id", job.UserID).Logger()

	if err := setReportStatus(ctx, job.ReportID, models.StatusProcessing); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			log.Warn().Msg("report vanished before processing; dropping job")
			return nil
		}
		return fmt.Errorf("mark processing: %w", err)
	}

	start := time.Now()
	r, games, err := runAnalysis(ctx, coach, job)
	if err != nil {
		log.Warn().Err(err).Msg("analysis failed")
		if ferr := failReport(ctx, job.ReportID, err); ferr != nil {
			return fmt.Errorf("mark failed: %w", ferr)
		}
		// A failed report does not count against the monthly allowance.
		if rerr := refundReport(ctx, job.UserID); rerr != nil {
			log.Error().Err(rerr).Msg("refund after failed analysis")
		}
		return nil
	}

	if err := completeReport(ctx, r, gameIDs(games)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	log.Info().
		Int("games", r.GamesAnalyzed).
		Int("weaknesses", len(r.Weaknesses)).
		Dur("took", time.Since(start)).
		Msg("report complete")
	return nil
}

func runAnalysis(ctx context.Context, coach Coach, job models.AnalysisJobMessage) (models.AnalysisReport, []models.GameRecord, error) {
	if coach == nil {
		return models.AnalysisReport{}, nil, fmt.Errorf("coach: %w", ErrNotConfigured)
	}
	q := gameQuery{
		Username:    job.Username,
		Platform:    job.Platform,
		TimeControl: job.TimeControl,
		MaxGames:    job.MaxGames,
	}
	if q.MaxGames <= 0 {
		q.MaxGames = defaultMaxGames
	}

	games, err := loadRecentGames(ctx, job.UserID, q.Platform, q.TimeControl, q.MaxGames)
	if err != nil {
		return models.AnalysisReport{}, nil, err
	}
	if len(games) == 0 {
		// Analysis was requested without an import; fetch now.
		games, err = fetchGames(ctx, job.UserID, q)
		if err != nil {
			return models.AnalysisReport{}, nil, err
		}
		if err := saveGames(ctx, games); err != nil {
			logger.Warn().Err(err).Str("report_id", job.ReportID).Msg("saveGames failed")
		}
	}
	if len(games) == 0 {
		return models.AnalysisReport{}, nil, ErrNoGames
	}

	ratings, err := fetchRatings(ctx, q.Platform, q.Username)
	if err != nil {
		return models.AnalysisReport{}, nil, fmt.Errorf("ratings: %w", err)
	}

	out, err := coach.Debrief(ctx, CoachInput{
		Username:    q.Username,
		Platform:    q.Platform,
		TimeControl: q.TimeControl,
		Ratings:     ratings,
		Games:       games,
	})
	if err != nil {
		return models.AnalysisReport{}, nil, err
	}

	r := models.AnalysisReport{
		ID:            job.ReportID,
		UserID:        job.UserID,
		Platform:      q.Platform,
		Username:      q.Username,
		Ratings:       ratings,
		GamesAnalyzed: len(games),
		Weaknesses:    out.Weaknesses,
		TrainingPlan:  out.TrainingPlan,
		Status:        models.StatusComplete,
	}
	if q.TimeControl != "" {
		tc := q.TimeControl
		r.TimeControl = &tc
	}
	if problems := report.Validate(r); len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.String()
		}
		return models.AnalysisReport{}, nil, fmt.Errorf("invalid report: %s", strings.Join(msgs, "; "))
	}

	return r, games, nil
}

func gameIDs(games []models.GameRecord) []string {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	return ids
}

// Debrief runs a complete analysis in-process and returns the report with the
// games it was built from. Nothing is persisted beyond the game cache.
func Debrief(ctx context.Context, coach Coach, username string, platform models.Platform, tc models.TimeControl, maxGames int) (models.AnalysisReport, []models.GameRecord, error) {
	q, err := normalizeGameQuery(username, platform, tc, maxGames, models.TierElite)
	if err != nil {
		return models.AnalysisReport{}, nil, err
	}
	r, games, err := runAnalysis(ctx, coach, models.AnalysisJobMessage{
		ReportID:    uuid.NewString(),
		UserID:      "cli",
		Username:    q.Username,
		Platform:    q.Platform,
		TimeControl: q.TimeControl,
		MaxGames:    q.MaxGames,
	})
	if err != nil {
		return models.AnalysisReport{}, nil, err
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	return r, games, nil
}

func logJobError(job models.AnalysisJobMessage, err error) {
	logger.Error().Err(err).Str("report_id", job.ReportID).Str("user_id", job.UserID).Msg("analysis job failed")
}

// JobHandler processes one decoded job.
type JobHandler func(ctx context.Context, job models.AnalysisJobMessage) error

// RunWorker long-polls queueURL until ctx is cancelled.
func RunWorker(ctx context.Context, client SQSAPI, queueURL string, handle JobHandler) error {
	logger.Info().Str("queue", queueURL).Msg("worker started")
	for {
		if ctx.Err() != nil {
			return nil
		}

		recvCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		resp, err := client.ReceiveMessage(recvCtx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   180, // must exceed jobTimeout
		})
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().Err(err).Msg("ReceiveMessage failed")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		for _, m := range resp.Messages {
			handleMessage(ctx, client, queueURL, m, handle)
		}
	}
}

// handleMessage runs one message and reports whether it was deleted. Bad
// payloads are deleted so they cannot block the queue; handler errors leave
// the message for redelivery.
func handleMessage(ctx context.Context, client SQSAPI, queueURL string, m sqstypes.Message, handle JobHandler) bool {
	if m.Body == nil {
		logger.Warn().Msg("received message with empty body")
		return deleteMessage(ctx, client, queueURL, m)
	}

	var job models.AnalysisJobMessage
	if err := json.Unmarshal([]byte(*m.Body), &job); err != nil || job.ReportID == "" {
		logger.Warn().Err(err).Str("body", *m.Body).Msg("poison message")
		return deleteMessage(ctx, client, queueURL, m)
	}

	logger.Info().
		Str("report_id", job.ReportID).
		Str("username", job.Username).
		Str("platform", string(job.Platform)).
		Msg("received analysis job")

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	err := handle(jobCtx, job)
	cancel()
	if err != nil {
		logJobError(job, err)
		return false
	}
	return deleteMessage(ctx, client, queueURL, m)
}

func deleteMessage(ctx context.Context, client SQSAPI, queueURL string, m sqstypes.Message) bool {
	if m.ReceiptHandle == nil {
		return false
	}
	_, err := client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: m.ReceiptHandle,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to delete SQS message")
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
