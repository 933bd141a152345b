package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
	"example/chessdebrief/app/report"
	"example/chessdebrief/auth"
)

const (
	readTimeout   = 10 * time.Second
	importTimeout = 60 * time.Second
)

// callerID returns the authenticated user id, answering 401 when there is none.
func callerID(c *gin.Context) (string, bool) {
	id := auth.UserID(c.Request.Context())
	if id == "" {
		respondError(c, http.StatusUnauthorized, "missing auth context", "unauthorized")
		return "", false
	}
	return id, true
}

// ImportGames downloads and stores a player's recent games.
func (a *API) ImportGames(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	res, err := a.source.ImportGames(ctx, userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// TriggerAnalysis starts a debrief and returns the id of the pending report.
func (a *API) TriggerAnalysis(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	res, err := a.source.TriggerAnalysis(ctx, userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}

// GetReport returns one of the caller's reports as stored.
func (a *API) GetReport(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	r, err := a.source.Report(ctx, userID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, r)
}

// GetReportSummary returns what the report page derives from a report: the
// score, the ordered weaknesses, the formatted ratings and any schema problems.
func (a *API) GetReportSummary(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	reportID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	r, err := a.source.Report(ctx, userID, reportID)
	if err != nil {
		respondErr(c, err)
		return
	}
	games, err := a.source.ReportGames(ctx, userID, reportID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, report.BuildView(r, games))
}

// trendChart loads the rating series named by the query string and maps it
// onto the requested canvas. ok is false when the series is too short to draw.
func (a *API) trendChart(c *gin.Context) (chart report.TrendChart, ok bool, err error) {
	q := TrendQuery{
		Platform:    models.Platform(strings.ToLower(c.DefaultQuery("platform", string(models.PlatformLichess)))),
		Username:    c.Query("username"),
		TimeControl: models.TimeControl(strings.ToLower(c.DefaultQuery("time_control", string(models.TimeControlRapid)))),
	}

	width, height := report.DefaultChartWidth, report.DefaultChartHeight
	if w := c.Query("width"); w != "" {
		if width, err = parsePositiveInt(w); err != nil {
			return chart, false, invalid("width", "must be a positive integer")
		}
	}
	if h := c.Query("height"); h != "" {
		if height, err = parsePositiveInt(h); err != nil {
			return chart, false, invalid("height", "must be a positive integer")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	points, err := a.source.RatingTrend(ctx, q)
	if err != nil {
		return chart, false, err
	}
	chart, ok = report.MapTrend(points, width, height)
	return chart, ok, nil
}

// GetRatingTrend returns chart geometry, or null data when there is nothing to draw.
func (a *API) GetRatingTrend(c *gin.Context) {
	chart, ok, err := a.trendChart(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !ok {
		respondData(c, http.StatusOK, nil)
		return
	}
	respondData(c, http.StatusOK, chart)
}

// GetRatingTrendSVG renders the trend card as an SVG image.
func (a *API) GetRatingTrendSVG(c *gin.Context) {
	chart, ok, err := a.trendChart(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/svg+xml", []byte(report.RenderSVG(chart)))
}

// JoinWaitlist records an early-access signup and sends the confirmation
// email the first time an address joins.
func (a *API) JoinWaitlist(c *gin.Context) {
	var req models.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid email", "invalid_email")
		return
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid email", "invalid_email")
		return
	}
	if a.mailer == nil {
		respondError(c, http.StatusInternalServerError, "Email service not configured", "not_configured")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	already, err := a.waitlist.Add(ctx, email)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !already {
		if err := a.mailer.SendWaitlistConfirmation(ctx, email); err != nil {
			// An unconfirmed address must not count as present on retry.
			if rerr := a.waitlist.Remove(context.WithoutCancel(ctx), email); rerr != nil {
				logger.Error().Err(rerr).Str("email", email).Msg("waitlist rollback failed")
			}
			respondErr(c, err)
			return
		}
	}
	respondData(c, http.StatusOK, gin.H{"ok": true, "already_present": already})
}
