package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/auth"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
// Mock mode runs without token verification as the configured mock user.
func NewRouter(cfg *config.Config, api *API) (*gin.Engine, error) {
	router := gin.New()
	router.Use(logger.GinLogger(), logger.GinRecovery())
	corsCfg := cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	router.GET("/health", Health)
	router.POST("/api/stripe/webhook", api.StripeWebhook)

	limiter := NewRateLimiter(cfg.HTTP.WaitlistRPS, cfg.HTTP.WaitlistBurst)
	router.POST("/api/waitlist", limiter.Middleware(), api.JoinWaitlist)

	authCfg := auth.MiddlewareConfig{}
	var verifier *auth.Verifier
	if !cfg.UseRealAPI {
		authCfg.DisableAuth = true
		authCfg.LocalUser = &auth.Claims{
			Subject:     cfg.Mock.UserID,
			Email:       "player@chessdebrief.com",
			DisplayName: cfg.Mock.UserName,
			Issuer:      "mock",
		}
	} else {
		v, err := auth.NewVerifier(cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.JWKSURL)
		if err != nil && !auth.AuthDisabled() {
			return nil, err
		}
		verifier = v
	}

	protected := router.Group("/api")
	protected.Use(auth.Middleware(verifier, authCfg))
	protected.GET("/me", api.Me)
	protected.POST("/games/import", api.ImportGames)
	protected.POST("/analysis", api.TriggerAnalysis)
	protected.GET("/analysis/:id", api.GetReport)
	protected.GET("/analysis/:id/summary", api.GetReportSummary)
	protected.GET("/ratings/trend", api.GetRatingTrend)
	protected.GET("/ratings/trend.svg", api.GetRatingTrendSVG)
	protected.POST("/stripe/checkout", api.CreateCheckoutSession)
	protected.POST("/stripe/portal", api.CreatePortalSession)

	return router, nil
}
