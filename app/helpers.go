package app

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reEcoMoves = regexp.MustCompile(`-\d.*`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,29}$`)
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, models.Envelope{Data: data})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, models.Envelope{Error: &models.APIError{Message: message, Code: code}})
}

// respondErr maps an error from a data source onto the response envelope.
func respondErr(c *gin.Context, err error) {
	var (
		verr validationError
		qerr quotaError
		herr httpError
	)
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Error(), "invalid_request")
	case errors.As(err, &qerr):
		respondError(c, http.StatusPaymentRequired, qerr.Error(), "quota_exceeded")
	case errors.Is(err, ErrReportNotFound):
		respondError(c, http.StatusNotFound, "Report not found", "not_found")
	case errors.Is(err, ErrPlayerNotFound):
		respondError(c, http.StatusNotFound, "Player not found", "player_not_found")
	case errors.Is(err, ErrNoGames):
		respondError(c, http.StatusUnprocessableEntity, "No games found for that player and time control", "no_games")
	case errors.Is(err, ErrNotConfigured):
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("missing configuration")
		respondError(c, http.StatusNotImplemented, "Real API not implemented yet", "not_configured")
	case errors.As(err, &herr):
		logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("upstream request failed")
		respondError(c, http.StatusBadGateway, "Upstream chess platform unavailable", "upstream_error")
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		respondError(c, http.StatusInternalServerError, "Internal server error", "internal")
	}
}

// parsePositiveInt parses a strictly positive decimal integer.
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

func validUsername(u string) bool {
	return reUsername.MatchString(u)
}

// NormalizeECO turns a Chess.com opening URL or slug into a readable opening
// name without the move suffix, e.g. ".../openings/Sicilian-Defense-Najdorf-6.Be3"
// becomes "Sicilian Defense Najdorf".
func NormalizeECO(ecoURL string) string {
	ecoURL = strings.TrimSpace(ecoURL)
	if ecoURL == "" {
		return ""
	}

	if idx := strings.LastIndex(ecoURL, "openings/"); idx != -1 {
		ecoURL = ecoURL[idx+len("openings/"):]
	} else if idx := strings.LastIndex(ecoURL, "/"); idx != -1 {
		ecoURL = ecoURL[idx+1:]
	}
	if idx := strings.Index(ecoURL, "?"); idx != -1 {
		ecoURL = ecoURL[:idx]
	}
	if loc := reEcoMoves.FindStringIndex(ecoURL); loc != nil {
		ecoURL = ecoURL[:loc[0]]
	}

	ecoURL = strings.ReplaceAll(ecoURL, "...", " ")
	ecoURL = strings.ReplaceAll(ecoURL, "-", " ")

	fields := strings.Fields(reSpaces.ReplaceAllString(ecoURL, " "))
	for i, tok := range fields {
		if strings.IndexFunc(tok, unicode.IsDigit) != -1 {
			fields = fields[:i]
			break
		}
	}
	return strings.Join(fields, " ")
}

// formatMoves renders SAN moves in numbered pairs: "1.e4 e5 2.Nf3".
func formatMoves(sans []string) string {
	var b strings.Builder
	for i, san := range sans {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteString(strconv.Itoa(i/2 + 1))
			b.WriteByte('.')
		}
		b.WriteString(san)
	}
	return b.String()
}

// platformSlug drops dots so "chess.com" can be used in file names.
func platformSlug(p models.Platform) string {
	return strings.ReplaceAll(string(p), ".", "")
}
