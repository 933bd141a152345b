package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"example/chessdebrief/app/logger"
)

// MiddlewareConfig controls auth enforcement.
type MiddlewareConfig struct {
	RequireScopes []string
	PublicPaths   map[string]bool
	// DisableAuth skips verification and attaches LocalUser instead. Mock mode
	// runs this way so the dashboard works without an identity provider.
	DisableAuth bool
	LocalUser   *Claims
}

// Middleware enforces bearer token auth and injects claims into the request context.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableAuth || AuthDisabled() {
			claims := cfg.LocalUser
			if claims == nil {
				claims = &Claims{Subject: "local-dev", Issuer: "local"}
			}
			c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
			c.Next()
			return
		}

		if cfg.PublicPaths[c.FullPath()] {
			c.Next()
			return
		}

		if verifier == nil {
			respondUnauthorized(c, "auth verifier not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("auth failure: missing Authorization header")
			respondUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := extractBearerToken(authHeader)
		if !ok {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("auth failure: malformed Authorization header")
			respondUnauthorized(c, "invalid authorization header")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("auth failure: token invalid")
			respondUnauthorized(c, "invalid token")
			return
		}

		if len(cfg.RequireScopes) > 0 && !hasScopes(claims.Scope, cfg.RequireScopes) {
			logger.Warn().Str("path", c.Request.URL.Path).Str("sub", claims.Subject).Msg("auth failure: missing scopes")
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody("insufficient scope", "forbidden"))
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func hasScopes(scopeClaim string, required []string) bool {
	available := map[string]bool{}
	for _, s := range strings.Fields(scopeClaim) {
		available[s] = true
	}
	for _, scope := range required {
		if !available[scope] {
			return false
		}
	}
	return true
}

func errorBody(message, code string) gin.H {
	return gin.H{"data": nil, "error": gin.H{"message": message, "code": code}}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(message, "unauthorized"))
}
